package testmod

import "context"

type Config struct {
	Host     string
	Port     int
	Deadline int64
	secret   string
}

type Server struct {
	Name    string
	Retries int
}

type Client struct {
	Addr  string
	Trace bool
}

type Wrapper struct {
	Settings *Config
}

type Handler interface {
	Handle(ctx context.Context, req string, opts ...string) (string, error)
	Close() error
}

func (c *Config) Validate() error { return nil }

func (c *Config) Apply(target string, force bool) (bool, error) { return false, nil }

func (s *Server) Start(address string) error { return nil }

func DoWork(ctx context.Context) {}

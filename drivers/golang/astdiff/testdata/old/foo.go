package testmod

import "context"

type Config struct {
	Host    string
	Port    int
	Timeout int64
	Retries int
	secret  string
}

type Server struct {
	Name string
}

type Client struct {
	Addr    string
	Verbose bool
	Debug   bool
}

type Wrapper struct {
	*Config
}

type Handler interface {
	Handle(ctx context.Context, req string) (string, error)
	Close() error
}

type unexportedType struct {
	Hidden int
}

func (c *Config) Validate() error { return nil }

func (c *Config) Apply(target string) (bool, error) { return false, nil }

func (c *Config) Legacy() {}

func (s *Server) Start(addr string) error { return nil }

func (u *unexportedType) Gone() {}

func DoWork() {}

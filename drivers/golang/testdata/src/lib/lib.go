package lib

type Config struct {
	Host string
	Port int
}

type Client struct {
	Config
	Name string
}

func Open() *Client { return &Client{} }

func (c *Client) Do() error { return nil }

func (c *Client) Keep() error { return nil }

type Box[T any] struct {
	Value T
}

type Other struct {
	Host string
}

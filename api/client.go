package api

import (
	"fmt"

	"github.com/davidbalbert/chatline/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type Client struct {
	*grpc.ClientConn
	*rpc.Client
}

// NewClient connects to a daemon. An empty address means the unix socket.
func NewClient(socket, address string) (*Client, error) {
	target := address
	if target == "" {
		target = fmt.Sprintf("unix://%s", socket)
	}

	conn, err := grpc.Dial(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}

	return &Client{
		ClientConn: conn,
		Client:     rpc.NewAPIClient(conn),
	}, nil
}

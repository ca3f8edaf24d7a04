package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls an APIService over conn.
type Client struct {
	conn grpc.ClientConnInterface
}

func NewAPIClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) invoke(ctx context.Context, name string, req *structpb.Struct) (*structpb.Struct, error) {
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, fullMethod(name), req, resp); err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *Client) GetVersion(ctx context.Context) (string, error) {
	resp, err := c.invoke(ctx, "GetVersion", empty())
	if err != nil {
		return "", err
	}

	return getString(resp, "version"), nil
}

func (c *Client) Shutdown(ctx context.Context) error {
	_, err := c.invoke(ctx, "Shutdown", empty())
	return err
}

func (c *Client) OpenSession(ctx context.Context) (string, error) {
	resp, err := c.invoke(ctx, "OpenSession", empty())
	if err != nil {
		return "", err
	}

	return getString(resp, "session"), nil
}

func (c *Client) CloseSession(ctx context.Context, session string) error {
	_, err := c.invoke(ctx, "CloseSession", fields{"session": str(session)}.toStruct())
	return err
}

func (c *Client) Dispatch(ctx context.Context, session, line string) (DispatchResult, error) {
	req := fields{
		"session": str(session),
		"line":    str(line),
	}.toStruct()

	resp, err := c.invoke(ctx, "Dispatch", req)
	if err != nil {
		return DispatchResult{}, err
	}

	return dispatchResultFromStruct(resp), nil
}

func (c *Client) Suggest(ctx context.Context, session, line string, cursor int) (Completion, error) {
	req := fields{
		"session": str(session),
		"line":    str(line),
		"cursor":  num(cursor),
	}.toStruct()

	resp, err := c.invoke(ctx, "Suggest", req)
	if err != nil {
		return Completion{}, err
	}

	return completionFromStruct(resp), nil
}

func (c *Client) Observe(ctx context.Context, line string) (Observation, error) {
	resp, err := c.invoke(ctx, "Observe", fields{"line": str(line)}.toStruct())
	if err != nil {
		return Observation{}, err
	}

	return observationFromStruct(resp), nil
}

func (c *Client) Login(ctx context.Context, username string) error {
	_, err := c.invoke(ctx, "Login", fields{"username": str(username)}.toStruct())
	return err
}

func (c *Client) Detect(ctx context.Context, text string) ([]Detection, error) {
	resp, err := c.invoke(ctx, "Detect", fields{"text": str(text)}.toStruct())
	if err != nil {
		return nil, err
	}

	return detectionsFromStructs(getStructs(resp, "detections")), nil
}

var _ APIService = (*Client)(nil)

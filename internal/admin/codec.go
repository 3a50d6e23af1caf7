package admin

import "encoding/json"

// jsonCodec lets the admin RPC surface use plain Go structs (ListSessionsRequest,
// ForceDisconnectRequest, ...) directly as gRPC messages instead of requiring a
// protoc-generated stub package: AdminService has exactly two narrow methods, so
// a generated .pb.go for it would outweigh the service itself. Registered under
// the "json" content-subtype; callers dial with
// grpc.CallContentSubtype("json") to select it.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return "json"
}

package compress

// NoOp is the identity codec, used when a section is stored uncompressed.
type NoOp struct{}

var _ Codec = NoOp{}

// Compress returns data unchanged.
func (NoOp) Compress(data []byte) ([]byte, error) { return data, nil }

// Decompress returns data unchanged.
func (NoOp) Decompress(data []byte, _ int) ([]byte, error) { return data, nil }

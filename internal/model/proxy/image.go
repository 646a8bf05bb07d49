package proxy

// TransformedImage is the normalized output of the image proxy pipeline.
// Whatever format the source was served in, the payload is always the
// pipeline's single lossy codec.
type TransformedImage struct {
	MIMEType   string
	ByteLength int
	Payload    []byte
}

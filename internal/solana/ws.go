package solana

import "context"

// WSClient defines Solana WebSocket subscription interface.
type WSClient interface {
	// SubscribeSignature subscribes to a transaction signature. The channel
	// receives one notification once the signature reaches commitment and is
	// then closed.
	SubscribeSignature(ctx context.Context, signature string, commitment Commitment) (<-chan SignatureNotification, error)

	// Close closes the WebSocket connection.
	Close() error
}

// SignatureNotification represents a signatureSubscribe message.
type SignatureNotification struct {
	Signature string
	Slot      int64
	Err       interface{}
}

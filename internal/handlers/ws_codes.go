// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the match handler.
// These provide more specific reasons for closure than standard codes.
const (
	BadSubprotocolError   = 3000 // Client connected without the "meitra" subprotocol.
	InvalidAuthTokenError = 3001 // Missing, invalid or expired auth token.
	InvalidMatchIDError   = 3003 // Match id in the URL does not exist or is malformed.
	NotSeatedError        = 3004 // Authenticated user holds no seat in the match.
	ReplacedError         = 3005 // The same user opened a newer connection.
	MatchOverError        = 3006 // Match finished and was removed from the server.
)

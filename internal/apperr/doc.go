// apperr defines the structured errors returned at the HTTP edge and the
// responder that turns them into the JSON error envelope sent to clients.
//
// **envelope**
// every error response has the form
//
//	{"success": false, "message": "..."}
//
// **kinds**
// middleware rejections (CORS, size, content type, rate limit) carry their own kind and status code.
// Anything else, including panics caught by the recoverer and errors of unknown type, is
// normalised to a 500. In the prod profile the 500 message is replaced by a generic string;
// the full error, including its cause chain, is always logged server-side.
//
// Use Responder.Respond() to send an error and RespondWithJSONPayload() for success payloads.
package apperr

package main

import "github.com/custodia-labs/paygate/internal/cli"

//	@title			paygate-server
//	@description	paygate-server is the HTTP gateway in front of the payment services (payments, custodial accounts, withdrawals, direct deposit, balances and transactions).
//	@description
//	@description	## Common Error Responses
//	@description	All endpoints may return the `{success, message}` envelope with:
//	@description	- `403` Origin not allowed by the CORS policy
//	@description	- `413` Request body exceeds size limit
//	@description	- `415` Unsupported Content-Type
//	@description	- `429` Rate limit exceeded
//	@description	- `500` Internal server error
//	@description
//	@description	## Request Limits
//	@description	Routes under /api are protected by:
//	@description	- **Rate limiting**: 1000 requests per client IP per 15 minute window (see env vars). RateLimit-* headers report the remaining budget.
//	@description	- **Request size limits**: Configurable (see env vars) - default 1MB
//	@description
//	@description	Check the X-Max-Request-Size response header for the configured limit.
//	@description
//	@license.name	MIT

//	@servers.url			http://localhost:8080
//	@servers.description	Development server

//	@accept		json
//	@produce	json

//	@tag.name			Common
//	@tag.description	Server API endpoints (health, readiness, version, descriptor)

//	@tag.name			Accounts
//	@tag.description	Custodial accounts provisioned at startup

func main() {
	cli.Execute()
}

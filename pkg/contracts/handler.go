// Package contracts holds the small interfaces the application wiring is
// built against, so handlers register their own routes without the server
// knowing the booking domain.
package contracts

import "github.com/julienschmidt/httprouter"

// Handler is anything that can mount itself on a router.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

package market

// The marketplace rejects calls with one of four stable error categories so
// integrators and tests can assert on cause rather than on failure alone.
// Every error below is both a category (matchable with errors.As) and a fixed
// reason (matchable with errors.Is against the exported variables).

// AuthorizationError reports a restricted action invoked by the wrong caller.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string { return "market: unauthorized: " + e.Reason }

// StateError reports an operation that is invalid for the current listing or
// escrow state.
type StateError struct {
	Reason string
}

func (e *StateError) Error() string { return "market: invalid state: " + e.Reason }

// PreconditionError reports malformed or unsatisfiable call arguments.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string { return "market: precondition failed: " + e.Reason }

// TimingError reports a timeout claim made before any deadline has lapsed.
type TimingError struct {
	Reason string
}

func (e *TimingError) Error() string { return "market: timing: " + e.Reason }

var (
	ErrNotSeller   = &AuthorizationError{Reason: "caller is not the seller"}
	ErrNotBuyer    = &AuthorizationError{Reason: "caller is not the buyer"}
	ErrNotParty    = &AuthorizationError{Reason: "caller is neither buyer nor seller"}
	ErrNotResolver = &AuthorizationError{Reason: "caller is not an authorized resolver"}
	ErrNotOwner    = &AuthorizationError{Reason: "caller is not the registry owner"}

	ErrListingNotFound  = &StateError{Reason: "listing not found"}
	ErrFactoryClosed    = &StateError{Reason: "registry closed to new listings"}
	ErrAlreadySold      = &StateError{Reason: "listing already purchased"}
	ErrNotPurchased     = &StateError{Reason: "listing has no buyer"}
	ErrAlreadyClosed    = &StateError{Reason: "listing already closed"}
	ErrAlreadyDisputed  = &StateError{Reason: "listing already disputed"}
	ErrNotDisputed      = &StateError{Reason: "listing is not disputed"}
	ErrAlreadyConfirmed = &StateError{Reason: "party already confirmed"}
	ErrHasBuyer         = &StateError{Reason: "listing cannot be withdrawn after purchase"}

	ErrZeroPrice          = &PreconditionError{Reason: "unit price must be positive"}
	ErrZeroQuantity       = &PreconditionError{Reason: "quantity must be positive"}
	ErrSelfPurchase       = &PreconditionError{Reason: "seller cannot purchase own listing"}
	ErrInvalidWinner      = &PreconditionError{Reason: "winner must be the buyer or the seller"}
	ErrInsufficientEscrow = &PreconditionError{Reason: "escrow balance below funded total"}
	ErrRemoveOwner        = &PreconditionError{Reason: "owner cannot be removed from resolver set"}

	ErrDeadlineNotReached = &TimingError{Reason: "no confirmation deadline has lapsed"}
)

package domain

// allowedStatusTransitions is the property lifecycle adjacency table.
// Every state permits a self-transition; nothing ever moves backwards.
var allowedStatusTransitions = map[PropertyStatus][]PropertyStatus{
	StatusDraft:      {StatusDraft, StatusLive},
	StatusLive:       {StatusLive, StatusUnderOffer},
	StatusUnderOffer: {StatusUnderOffer, StatusSold},
	StatusSold:       {StatusSold},
}

func ValidateStatusTransition(current, next PropertyStatus) error {
	for _, allowed := range allowedStatusTransitions[current] {
		if allowed == next {
			return nil
		}
	}
	return ErrInvalidStatusTransition(current, next)
}

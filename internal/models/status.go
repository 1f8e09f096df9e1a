package models

type OrderStatus string

const (
	StatusCreated   OrderStatus = "CREATED"
	StatusAssigning OrderStatus = "ASSIGNING"
	StatusAssigned  OrderStatus = "ASSIGNED"
	StatusPickedUp  OrderStatus = "PICKED_UP"
	StatusDelivered OrderStatus = "DELIVERED"
	StatusCancelled OrderStatus = "CANCELLED"
)

var allowedTransitions = map[OrderStatus][]OrderStatus{
	StatusCreated:   {StatusAssigning, StatusCancelled},
	StatusAssigning: {StatusAssigning, StatusAssigned, StatusCreated, StatusCancelled},
	StatusAssigned:  {StatusPickedUp, StatusCancelled},
	StatusPickedUp:  {StatusDelivered, StatusCancelled},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusCreated, StatusAssigning, StatusAssigned, StatusPickedUp, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, next := range allowedTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

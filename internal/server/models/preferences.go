package models

import "fmt"

// Sorting is the default sort key for task lists.
type Sorting string

const (
	SortByPriority Sorting = "priority"
	SortByTime     Sorting = "time"
	SortByAge      Sorting = "age"
)

// Ordering is the default sort direction for task lists.
type Ordering string

const (
	OrderAscending  Ordering = "ascending"
	OrderDescending Ordering = "descending"
)

// Preferences are per-account defaults applied when creating and listing tasks.
type Preferences struct {
	ID              string
	OwnerID         string
	DefaultDuration int
	DefaultPriority Priority
	DefaultSorting  Sorting
	DefaultOrdering Ordering
}

// DefaultPreferences returns the preferences every new account starts with.
func DefaultPreferences(ownerID string) *Preferences {
	return &Preferences{
		OwnerID:         ownerID,
		DefaultDuration: 15,
		DefaultPriority: PriorityMedium,
		DefaultSorting:  SortByPriority,
		DefaultOrdering: OrderAscending,
	}
}

// ParseSorting validates s as a Sorting.
func ParseSorting(s string) (Sorting, error) {
	switch v := Sorting(s); v {
	case SortByPriority, SortByTime, SortByAge:
		return v, nil
	}
	return "", fmt.Errorf("unknown sorting %q", s)
}

// ParseOrdering validates s as an Ordering.
func ParseOrdering(s string) (Ordering, error) {
	switch v := Ordering(s); v {
	case OrderAscending, OrderDescending:
		return v, nil
	}
	return "", fmt.Errorf("unknown ordering %q", s)
}

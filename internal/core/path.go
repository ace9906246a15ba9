package core

import "time"

// Point is a single canvas coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Path is one continuous stroke. It is owned by exactly one account for its
// lifetime; only the connection that started it may mutate it. Paths loaded
// from storage have an empty OwnerConn and are immutable history.
type Path struct {
	ID        string
	OwnerConn string
	OwnerKey  string
	OwnerName string
	Points    []Point
	Color     string
	Width     float64
	Ended     bool
	CreatedAt time.Time
}

func (p *Path) clone() *Path {
	cp := *p
	cp.Points = make([]Point, len(p.Points))
	copy(cp.Points, p.Points)
	return &cp
}

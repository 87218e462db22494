package pool

import (
	"database/sql"
	"fmt"
)

// StatsSource exposes runtime counters of a connection pool. *sql.DB implements it.
type StatsSource interface {
	Stats() sql.DBStats
}

// Status is a point-in-time snapshot of the connection pool.
type Status struct {
	Active  int // connections currently in use
	Idle    int // open connections waiting to be reused
	MaxOpen int // configured upper bound, 0 means unlimited
}

// String formats the snapshot as "Active: N, Idle: M".
func (s Status) String() string {
	return fmt.Sprintf("Active: %d, Idle: %d", s.Active, s.Idle)
}

// Usecase reads connection pool status.
type Usecase struct {
	src StatsSource
}

// New creates a pool status usecase reading from src.
func New(src StatsSource) *Usecase {
	return &Usecase{src: src}
}

// Status reads the live pool counters.
func (uc *Usecase) Status() Status {
	st := uc.src.Stats()
	return Status{
		Active:  st.InUse,
		Idle:    st.Idle,
		MaxOpen: st.MaxOpenConnections,
	}
}

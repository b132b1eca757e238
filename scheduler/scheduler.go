package scheduler

// Package scheduler provides scheduled job management for the portfolio
// backend. It handles:
// - Quote cache warming for held symbols during market hours
// - Daily price-series sync after market close
// - Weekly pruning of the local price store and suggestion archive
//
// The main scheduler is implemented in jobs.go

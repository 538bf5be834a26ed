package main

import "github.com/jackc/pgx/v5/pgxpool"

// postgresPool adapts pgxpool.Pool to io.Closer for shutdown ordering.
type postgresPool struct {
	*pgxpool.Pool
}

func (p *postgresPool) Close() error {
	p.Pool.Close()
	return nil
}

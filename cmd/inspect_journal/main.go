package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

func main() {
	ticker := flag.String("ticker", "", "filter by ticker")
	kind := flag.String("kind", "", "filter by kind (fill, repost, pause, cancel, order_placed, ...)")
	engine := flag.String("engine", "", "filter by engine (marketmaking, combined)")
	n := flag.Int("n", 20, "max rows to return")
	dbPath := flag.String("db", os.Getenv("JOURNAL_PATH"), "path to the engine journal")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: go run ./cmd/inspect_journal -db data/journal.db [-ticker T] [-kind fill] [-n 20]")
		os.Exit(1)
	}

	db, err := sql.Open("sqlite", *dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(10000)&mode=ro")
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	q := `SELECT id, engine, kind, recorded_at, ticker, side, order_id, price_cents, qty,
		COALESCE(total_filled, -1), COALESCE(combined, -1), detail
		FROM engine_actions WHERE 1=1`
	var args []any
	if *ticker != "" {
		q += ` AND ticker = ?`
		args = append(args, *ticker)
	}
	if *kind != "" {
		q += ` AND kind = ?`
		args = append(args, *kind)
	}
	if *engine != "" {
		q += ` AND engine = ?`
		args = append(args, *engine)
	}
	q += ` ORDER BY id DESC LIMIT ?`
	args = append(args, *n)

	rows, err := db.Query(q, args...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "query: %v\n", err)
		os.Exit(1)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var (
			id                            int64
			eng, k, at, tk, side, orderID string
			price, qty, total, comb       int
			detail                        string
		)
		if err := rows.Scan(&id, &eng, &k, &at, &tk, &side, &orderID, &price, &qty, &total, &comb, &detail); err != nil {
			fmt.Fprintf(os.Stderr, "scan: %v\n", err)
			continue
		}
		count++

		fmt.Printf("%-6d %s %-12s %-16s %-20s %-3s %3dc x%-4d", id, at, eng, k, tk, side, price, qty)
		if orderID != "" {
			fmt.Printf(" order=%s", orderID)
		}
		if total >= 0 {
			fmt.Printf(" filled=%d", total)
		}
		if comb >= 0 {
			fmt.Printf(" combined=%d", comb)
		}
		if detail != "" {
			fmt.Printf(" %q", detail)
		}
		fmt.Println()
	}
	if count == 0 {
		fmt.Println("(no matching rows)")
	} else {
		fmt.Printf("(%d rows)\n", count)
	}
}

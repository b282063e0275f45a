package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/socioadmin/tesoreria_backend/config"
	"github.com/socioadmin/tesoreria_backend/utils"
	"github.com/socioadmin/tesoreria_backend/workflow"
)

func main() {
	actorName := flag.String("actor-name", "RecalculateBalancesCLI", "Actor name recorded in the audit trail.")
	skipRedis := flag.Bool("skip-redis", false, "Skip the redis lock; rely on the MySQL advisory lock only.")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	if !*skipRedis {
		config.ConnectRedisWithRetry()
	}

	// The audit record needs an actor, even for ops runs.
	ctx := utils.SetActorIdInContext(context.Background(), 0)
	ctx = utils.SetActorNameInContext(ctx, *actorName)

	summary, err := workflow.RecalculateBalances(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "recalculation failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("scanned=%d updated=%d final_balance=%s\n",
		summary.EntriesScanned, summary.EntriesUpdated, summary.FinalBalance.String())
}

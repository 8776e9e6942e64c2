package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"

	"collabx/domain/chat"
	"collabx/repositories"
)

func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	// Default on "thread:" to skip the threadix:/userix:/accountix: indexes
	prefix := flag.String("prefix", "thread:", "Prefix to scan (thread: or account:)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "ID", "Detail", "Last Activity"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			rawKey := string(item.Key())

			err := item.Value(func(v []byte) error {
				switch {
				case strings.HasPrefix(rawKey, "thread:"):
					var thread chat.Thread
					if err := json.Unmarshal(v, &thread); err != nil {
						fmt.Printf("Error unmarshaling key %s: %v\n", rawKey, err)
						return nil
					}
					table.Append([]string{
						rawKey,
						shortID(thread.ID),
						fmt.Sprintf("%s ↔ %s (%d messages)",
							participantLabel(thread, 0), participantLabel(thread, 1), len(thread.Messages)),
						thread.LastActivityAt.Format("2006-01-02 15:04:05"),
					})
				case strings.HasPrefix(rawKey, "account:"):
					var account repositories.Account
					if err := json.Unmarshal(v, &account); err != nil {
						fmt.Printf("Error unmarshaling key %s: %v\n", rawKey, err)
						return nil
					}
					table.Append([]string{
						rawKey,
						shortID(account.ID),
						fmt.Sprintf("%s <%s> %s", account.CompanyName, account.Email, account.Kind),
						account.CreatedAt.Format("2006-01-02 15:04:05"),
					})
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

// shortID keeps the first 8 characters of a UUID for readability.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func participantLabel(thread chat.Thread, idx int) string {
	if idx >= len(thread.Participants) {
		return "?"
	}
	p := thread.Participants[idx]
	return fmt.Sprintf("%s[%s]", p.Name, p.Kind)
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	db, err := badger.Open(opts)
	if err != nil {
		// A crashed server can leave the value log in need of truncation;
		// a write open performs it, then reopen read-only.
		if strings.Contains(err.Error(), "Log truncate required") {
			repairOpts := badger.DefaultOptions(path).
				WithLogger(nil).WithBypassLockGuard(true)

			db, err = badger.Open(repairOpts)
			if err != nil {
				return nil, fmt.Errorf("repair failed: %w", err)
			}

			db.Close()
			return badger.Open(opts)
		}
		return nil, err
	}
	return db, nil
}

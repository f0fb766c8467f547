package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/zonesync/internal/client/storage"
	"github.com/iudanet/zonesync/internal/models"
	"github.com/iudanet/zonesync/internal/validation"
)

// DefaultRecordType тип записи, если --type не указан
const DefaultRecordType = "record"

func (c *Cli) putCommand() *cobra.Command {
	var recordType string

	cmd := &cobra.Command{
		Use:   "put <id> key=value...",
		Short: "Create or update a local record",
		Long: "Sets record fields and queues the record for upload.\n" +
			"Values that are valid JSON are stored as JSON, anything else as a string.",
		Example: "  zonesync put note-1 title=Groceries done=false tags='[\"home\"]'",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPut(cmd.Context(), models.RecordID(args[0]), args[1:], recordType)
		},
	}
	cmd.Flags().StringVar(&recordType, "type", "", "Record type (default \""+DefaultRecordType+"\" for new records)")
	return cmd
}

func (c *Cli) runPut(ctx context.Context, id models.RecordID, pairs []string, recordType string) error {
	if err := validation.ValidateRecordID(string(id)); err != nil {
		return err
	}
	fields, err := parseFields(pairs)
	if err != nil {
		return err
	}

	ws, err := c.openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer c.closeWorkspace(ws)

	rec, err := ws.store.GetRecord(ctx, id)
	switch {
	case errors.Is(err, storage.ErrRecordNotFound):
		if recordType == "" {
			recordType = DefaultRecordType
		}
		created := models.NewRecord(id, recordType)
		rec = &created
	case err != nil:
		return fmt.Errorf("failed to load record: %w", err)
	case recordType != "":
		rec.Type = recordType
	}

	for _, f := range fields {
		if err := rec.SetField(f.key, f.value); err != nil {
			return err
		}
	}
	if err := rec.Touch(c.now()); err != nil {
		return err
	}

	if err := ws.store.PutRecord(ctx, *rec); err != nil {
		return err
	}
	if err := ws.store.MarkPending(ctx, id, storage.PendingSave); err != nil {
		return err
	}

	c.io.Printf("✓ Record %s saved (%d field(s) changed, pending upload)\n", id, len(fields))
	return nil
}

type field struct {
	value any
	key   string
}

// parseFields разбирает аргументы key=value
func parseFields(pairs []string) ([]field, error) {
	fields := make([]field, 0, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field %q, expected key=value", pair)
		}
		if key == models.FieldModifiedAt {
			return nil, fmt.Errorf("field %q is managed automatically", key)
		}
		fields = append(fields, field{key: key, value: parseValue(raw)})
	}
	return fields, nil
}

func parseValue(raw string) any {
	if json.Valid([]byte(raw)) {
		return json.RawMessage(raw)
	}
	return raw
}

func (c *Cli) rmCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a local record and queue the deletion for upload",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRm(cmd.Context(), models.RecordID(args[0]))
		},
	}
}

func (c *Cli) runRm(ctx context.Context, id models.RecordID) error {
	ws, err := c.openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer c.closeWorkspace(ws)

	if _, err := ws.store.GetRecord(ctx, id); err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			return fmt.Errorf("record %s not found", id)
		}
		return err
	}

	if err := ws.store.RemoveRecord(ctx, id); err != nil {
		return err
	}
	if err := ws.store.MarkPending(ctx, id, storage.PendingDelete); err != nil {
		return err
	}

	c.io.Printf("✓ Record %s deleted (pending upload)\n", id)
	return nil
}

func (c *Cli) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List local records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runList(cmd.Context())
		},
	}
}

func (c *Cli) runList(ctx context.Context) error {
	ws, err := c.openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer c.closeWorkspace(ws)

	records, err := ws.store.ListRecords(ctx)
	if err != nil {
		return err
	}
	pending, err := ws.store.Pending(ctx)
	if err != nil {
		return err
	}

	c.io.Println("=== Records ===")
	c.io.Println()

	if len(records) == 0 {
		c.io.Println("No records found.")
		c.io.Println()
		c.io.Println("Use 'zonesync put <id> key=value' to add your first record.")
		return nil
	}

	pendingSave := models.RecordIDs(pending.RecordsToSave)
	c.io.Printf("Found %d record(s):\n", len(records))
	c.io.Println()

	for i, rec := range records {
		c.io.Printf("%d. %s (%s)\n", i+1, rec.ID, rec.Type)
		c.io.Printf("   Fields:   %s\n", strings.Join(fieldKeys(rec), ", "))
		if t, ok := rec.ModifiedAt(); ok {
			c.io.Printf("   Modified: %s\n", t.Format(time.RFC3339))
		}
		c.io.Printf("   Status:   %s\n", recordStatus(rec, slices.Contains(pendingSave, rec.ID)))
		c.io.Println()
	}

	if n := len(pending.RecordIDsToDelete); n > 0 {
		c.io.Printf("%d deletion(s) pending upload\n", n)
	}
	return nil
}

func (c *Cli) getCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a local record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGet(cmd.Context(), models.RecordID(args[0]))
		},
	}
}

func (c *Cli) runGet(ctx context.Context, id models.RecordID) error {
	ws, err := c.openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer c.closeWorkspace(ws)

	rec, err := ws.store.GetRecord(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			return fmt.Errorf("record %s not found", id)
		}
		return err
	}
	pending, err := ws.store.Pending(ctx)
	if err != nil {
		return err
	}

	c.io.Printf("=== Record %s ===\n", rec.ID)
	c.io.Println()
	c.io.Printf("Type:     %s\n", rec.Type)
	c.io.Printf("Status:   %s\n", recordStatus(*rec, slices.Contains(models.RecordIDs(pending.RecordsToSave), rec.ID)))
	if t, ok := rec.ModifiedAt(); ok {
		c.io.Printf("Modified: %s\n", t.Format(time.RFC3339))
	}
	c.io.Println()
	c.io.Println("Fields:")
	for _, key := range fieldKeys(*rec) {
		c.io.Printf("  %s = %s\n", key, string(rec.Fields[key]))
	}
	return nil
}

func fieldKeys(rec models.Record) []string {
	keys := make([]string, 0, len(rec.Fields))
	for k := range rec.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func recordStatus(rec models.Record, pending bool) string {
	switch {
	case pending && rec.Uploaded():
		return "modified, pending upload"
	case pending:
		return "new, pending upload"
	case rec.Uploaded():
		return "synced"
	default:
		return "local only"
	}
}

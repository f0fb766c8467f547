package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/iudanet/zonesync/internal/client/api"
	"github.com/iudanet/zonesync/internal/models"
)

// Форматы вывода status
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

const recentSessions = 5

type statusReport struct {
	Zone         string          `json:"zone" yaml:"zone"`
	Subscription string          `json:"subscription" yaml:"subscription"`
	Remote       string          `json:"remote" yaml:"remote"`
	Account      string          `json:"account,omitempty" yaml:"account,omitempty"`
	Sessions     []sessionReport `json:"recent_sessions,omitempty" yaml:"recent_sessions,omitempty"`
	State        stateReport     `json:"state" yaml:"state"`
	Records      int             `json:"records" yaml:"records"`
	PendingSave  int             `json:"pending_save" yaml:"pending_save"`
	PendingDel   int             `json:"pending_delete" yaml:"pending_delete"`
}

type stateReport struct {
	DatabaseToken           string `json:"database_token,omitempty" yaml:"database_token,omitempty"`
	ZoneToken               string `json:"zone_token,omitempty" yaml:"zone_token,omitempty"`
	ZoneProvisioned         bool   `json:"zone_provisioned" yaml:"zone_provisioned"`
	SubscriptionProvisioned bool   `json:"subscription_provisioned" yaml:"subscription_provisioned"`
}

type sessionReport struct {
	StartedAt time.Time `json:"started_at" yaml:"started_at"`
	Duration  string    `json:"duration" yaml:"duration"`
	ID        string    `json:"id" yaml:"id"`
	Kind      string    `json:"kind" yaml:"kind"`
	Error     string    `json:"error,omitempty" yaml:"error,omitempty"`
	Uploaded  int       `json:"uploaded" yaml:"uploaded"`
	Changed   int       `json:"changed" yaml:"changed"`
	Deleted   int       `json:"deleted" yaml:"deleted"`
}

func newSessionReport(s models.SessionSummary) sessionReport {
	return sessionReport{
		StartedAt: s.StartedAt,
		Duration:  s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond).String(),
		ID:        s.ID,
		Kind:      string(s.Kind),
		Error:     s.Error,
		Uploaded:  s.Uploaded,
		Changed:   s.Changed,
		Deleted:   s.Deleted,
	}
}

func (c *Cli) statusCommand() *cobra.Command {
	var (
		output string
		check  bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the local sync state and outbox",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStatus(cmd.Context(), output, check)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", OutputText, "Output format (text, json, yaml)")
	cmd.Flags().BoolVar(&check, "check", false, "Also ask the remote store for the account status")
	return cmd
}

func (c *Cli) runStatus(ctx context.Context, output string, check bool) error {
	switch output {
	case OutputText, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("unknown output format %q", output)
	}

	report, err := c.buildStatus(ctx)
	if err != nil {
		return err
	}

	if check {
		timeout := c.cfg.Remote.Timeout
		if timeout <= 0 {
			timeout = api.DefaultTimeout
		}
		checkCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		account, err := c.remote().AccountStatus(checkCtx)
		report.Account = string(account)
		if err != nil {
			c.logger.Warn("Account status check failed", "error", err)
		}
	}

	switch output {
	case OutputJSON:
		enc := json.NewEncoder(c.io)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case OutputYAML:
		enc := yaml.NewEncoder(c.io)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	default:
		c.printStatus(report)
		return nil
	}
}

func (c *Cli) buildStatus(ctx context.Context) (*statusReport, error) {
	ws, err := c.openWorkspace(ctx)
	if err != nil {
		return nil, err
	}
	defer c.closeWorkspace(ws)

	state, err := ws.store.LoadState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sync state: %w", err)
	}
	pending, err := ws.store.Pending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read outbox: %w", err)
	}
	records, err := ws.store.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	report := &statusReport{
		Zone:         c.cfg.Zone.Name,
		Subscription: c.cfg.Zone.SubscriptionID,
		Remote:       c.cfg.Remote.URL,
		State: stateReport{
			DatabaseToken:           shortToken(state.DatabaseToken),
			ZoneToken:               shortToken(state.ZoneToken),
			ZoneProvisioned:         state.ZoneProvisioned,
			SubscriptionProvisioned: state.SubscriptionProvisioned,
		},
		Records:     len(records),
		PendingSave: len(pending.RecordsToSave),
		PendingDel:  len(pending.RecordIDsToDelete),
	}

	if ws.journal != nil {
		sessions, err := ws.journal.Sessions(ctx, recentSessions)
		if err != nil {
			return nil, fmt.Errorf("failed to read journal: %w", err)
		}
		for _, s := range sessions {
			report.Sessions = append(report.Sessions, newSessionReport(s))
		}
	}
	return report, nil
}

func (c *Cli) printStatus(r *statusReport) {
	c.io.Println("=== Sync Status ===")
	c.io.Println()
	c.io.Printf("Zone:         %s\n", r.Zone)
	c.io.Printf("Subscription: %s\n", r.Subscription)
	c.io.Printf("Remote:       %s\n", r.Remote)
	if r.Account != "" {
		c.io.Printf("Account:      %s\n", r.Account)
	}
	c.io.Println()

	c.io.Printf("Zone created:         %s\n", yesNo(r.State.ZoneProvisioned))
	c.io.Printf("Subscription created: %s\n", yesNo(r.State.SubscriptionProvisioned))
	c.io.Printf("Database token:       %s\n", orNone(r.State.DatabaseToken))
	c.io.Printf("Zone token:           %s\n", orNone(r.State.ZoneToken))
	c.io.Println()

	c.io.Printf("Local records: %d\n", r.Records)
	if r.PendingSave+r.PendingDel > 0 {
		c.io.Printf("⚠️  Pending upload: %d save(s), %d deletion(s)\n", r.PendingSave, r.PendingDel)
		c.io.Println("Run 'zonesync sync' to synchronize with the remote store.")
	} else {
		c.io.Println("✓ Outbox is empty")
	}

	if len(r.Sessions) == 0 {
		return
	}
	c.io.Println()
	c.io.Println("Recent sessions:")
	for _, s := range r.Sessions {
		result := "ok"
		if s.Error != "" {
			result = "error: " + s.Error
		}
		c.io.Printf("  %s  %-6s up=%d changed=%d deleted=%d  %s\n",
			s.StartedAt.Local().Format(time.DateTime), s.Kind, s.Uploaded, s.Changed, s.Deleted, result)
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// shortToken пустая строка для отсутствующего токена, чтобы поле пропускалось в JSON/YAML
func shortToken(t models.ChangeToken) string {
	if t.IsZero() {
		return ""
	}
	return t.Short()
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

package cli

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/cobra"

	"github.com/rcliao/mcp-memory/internal/model"
	"github.com/rcliao/mcp-memory/internal/store"
)

func (a *app) newPutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put [content]",
		Short: "Store a memory",
		Long:  "Store a memory. Content can be a positional arg or piped via stdin.",
		RunE:  a.runPut,
	}

	cmd.Flags().StringP("ns", "n", model.DefaultNamespace, "Namespace")
	cmd.Flags().String("type", model.TypeNote, "Record type, e.g. note, fact, task")
	cmd.Flags().String("title", "", "Title")
	cmd.Flags().String("agent", "", "Agent id")
	cmd.Flags().StringSliceP("tags", "t", nil, "Tags")
	cmd.Flags().StringSlice("refs", nil, "Ids of related memories")
	cmd.Flags().Float64P("importance", "i", model.DefaultImportance, "Importance in [0,1]")
	cmd.Flags().Bool("pin", false, "Pin the memory")
	cmd.Flags().String("ttl", "", "Expire after a duration: 2w, 7d, 24h, 30m, 60s")
	cmd.Flags().String("meta", "", "JSON object of metadata")

	return cmd
}

func (a *app) runPut(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	ns, _ := flags.GetString("ns")
	typ, _ := flags.GetString("type")
	agent, _ := flags.GetString("agent")
	tags, _ := flags.GetStringSlice("tags")
	refs, _ := flags.GetStringSlice("refs")
	pin, _ := flags.GetBool("pin")
	ttl, _ := flags.GetString("ttl")
	meta, _ := flags.GetString("meta")

	content, err := readInput(cmd, args)
	if err != nil {
		return goerr.Wrap(err, "read stdin")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return goerr.New("content is required (positional arg or stdin)")
	}

	expiresAt, err := store.ExpiryFromTTL(time.Now(), ttl)
	if err != nil {
		return err
	}

	metadata, err := model.NormalizeMetadata(json.RawMessage(meta))
	if err != nil {
		return goerr.Wrap(err, "meta must be a JSON object")
	}

	p := store.CreateParams{
		Content:   content,
		Type:      typ,
		AgentID:   agent,
		NS:        ns,
		Metadata:  metadata,
		Tags:      tags,
		Refs:      refs,
		Pin:       pin,
		ExpiresAt: expiresAt,
	}
	if flags.Changed("title") {
		title, _ := flags.GetString("title")
		p.Title = &title
	}
	if flags.Changed("importance") {
		importance, _ := flags.GetFloat64("importance")
		p.Importance = &importance
	}

	return a.withStore(func(s *store.SQLiteStore) error {
		m, err := s.Create(cmd.Context(), p)
		if err != nil {
			return err
		}
		return printJSON(cmd, m)
	})
}

package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/bcnelson/apikey-console/internal/domain"
	"github.com/spf13/cobra"
)

// keyFlags holds the editable key fields shared by create and update.
type keyFlags struct {
	name        string
	userNameKey string
	description string
	keyType     string
	limit       string
	trackType   string
	trackLimit  string
	expiry      string
}

func (f *keyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Key name")
	cmd.Flags().StringVar(&f.userNameKey, "user", "", "Owning user name")
	cmd.Flags().StringVar(&f.description, "description", "", "Free-form description")
	cmd.Flags().StringVar(&f.keyType, "type", "", "Key type: development or production")
	cmd.Flags().StringVar(&f.limit, "limit", "", "Usage limit; setting it enables limiting, \"off\" disables it")
	cmd.Flags().StringVar(&f.trackType, "track-type", "", "Usage tracking: user, usage or days")
	cmd.Flags().StringVar(&f.trackLimit, "track-limit", "", "Tracking limit")
	cmd.Flags().StringVar(&f.expiry, "expiry", "", "Expiry date (YYYY-MM-DD), \"none\" clears it")
}

func parseExpiry(raw string) (*domain.Date, error) {
	if raw == "" || raw == "none" {
		return nil, nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid --expiry: %w", err)
	}
	return &d, nil
}

// ---------- list ----------

func newListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runList(cmd *cobra.Command, jsonOutput bool) error {
	s, err := openSession(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer s.Close()

	keys := s.console.Snapshot().Keys
	out := cmd.OutOrStdout()

	if jsonOutput {
		if keys == nil {
			keys = []domain.APIKey{}
		}
		return writeJSON(out, keys)
	}

	if len(keys) == 0 {
		fmt.Fprintln(out, "No API keys. Use 'keyctl create' to create one.")
		return nil
	}

	fmt.Fprintf(out, "%-38s %-20s %-24s %-12s %-9s %-10s\n", "ID", "NAME", "KEY", "TYPE", "STATUS", "EXPIRES")
	fmt.Fprintf(out, "%-38s %-20s %-24s %-12s %-9s %-10s\n", "--", "----", "---", "----", "------", "-------")
	for _, k := range keys {
		expires := "never"
		if k.ExpiryDate != nil {
			expires = k.ExpiryDate.String()
		}
		fmt.Fprintf(out, "%-38s %-20s %-24s %-12s %-9s %-10s\n",
			k.ID, k.Name, k.Key, orDash(string(k.Type)), k.Status, expires)
	}
	return nil
}

// ---------- create ----------

func newCreateCmd() *cobra.Command {
	var (
		flags keyFlags
		key   string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new API key",
		Long:  "Create a new active API key. A pk_ key is generated unless --key is given.",
		Example: `  keyctl create --name "CI pipeline" --type production
  keyctl create --name trial --limit 1000 --expiry 2025-01-31`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd, flags, key)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&key, "key", "", "Use this key value instead of generating one")
	cmd.MarkFlagRequired("name")

	return cmd
}

func runCreate(cmd *cobra.Command, flags keyFlags, key string) error {
	expiry, err := parseExpiry(flags.expiry)
	if err != nil {
		return err
	}

	s, err := openSession(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer s.Close()

	ev, err := s.console.Dispatch(cmd.Context(), domain.CreateKeyCommand{
		Name:         flags.name,
		UserNameKey:  flags.userNameKey,
		Key:          key,
		Description:  flags.description,
		Type:         domain.KeyType(flags.keyType),
		LimitEnabled: cmd.Flags().Changed("limit"),
		Limit:        domain.NumberInput(flags.limit),
		TrackType:    domain.TrackType(flags.trackType),
		TrackLimit:   domain.NumberInput(flags.trackLimit),
		ExpiryDate:   expiry,
	})
	if err != nil {
		return fmt.Errorf("create api key: %w", err)
	}

	created := ev.(domain.KeyCreated).Key
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "API Key created:")
	fmt.Fprintln(out)
	printKey(out, created)
	return nil
}

// ---------- update ----------

func newUpdateCmd() *cobra.Command {
	var flags keyFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit an API key",
		Long:  "Rewrite the editable fields of a key. Flags not given keep their current values.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, domain.KeyID(args[0]), flags)
		},
	}

	flags.register(cmd)

	return cmd
}

func runUpdate(cmd *cobra.Command, id domain.KeyID, flags keyFlags) error {
	s, err := openSession(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer s.Close()

	current, ok := s.console.Snapshot().Find(id)
	if !ok {
		return fmt.Errorf("api key %s: %w", id, domain.ErrNotFound)
	}

	upd := domain.UpdateKeyCommand{
		ID:           id,
		Name:         current.Name,
		UserNameKey:  current.UserNameKey,
		Description:  current.Description,
		Type:         current.Type,
		LimitEnabled: current.Limit != nil,
		Limit:        domain.IntInput(current.Limit),
		TrackType:    current.TrackType,
		TrackLimit:   domain.IntInput(current.TrackLimit),
		ExpiryDate:   current.ExpiryDate,
	}

	changed := cmd.Flags().Changed
	if changed("name") {
		upd.Name = flags.name
	}
	if changed("user") {
		upd.UserNameKey = flags.userNameKey
	}
	if changed("description") {
		upd.Description = flags.description
	}
	if changed("type") {
		upd.Type = domain.KeyType(flags.keyType)
	}
	if changed("limit") {
		upd.LimitEnabled = flags.limit != "off"
		upd.Limit = domain.NumberInput(flags.limit)
	}
	if changed("track-type") {
		upd.TrackType = domain.TrackType(flags.trackType)
	}
	if changed("track-limit") {
		upd.TrackLimit = domain.NumberInput(flags.trackLimit)
	}
	if changed("expiry") {
		if upd.ExpiryDate, err = parseExpiry(flags.expiry); err != nil {
			return err
		}
	}

	ev, err := s.console.Dispatch(cmd.Context(), upd)
	if err != nil {
		return fmt.Errorf("update api key: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "API Key updated:")
	fmt.Fprintln(cmd.OutOrStdout())
	printKey(cmd.OutOrStdout(), ev.(domain.KeyUpdated).Key)
	return nil
}

// ---------- toggle ----------

func newToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a key between active and inactive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToggle(cmd, domain.KeyID(args[0]))
		},
	}
}

func runToggle(cmd *cobra.Command, id domain.KeyID) error {
	s, err := openSession(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer s.Close()

	ev, err := s.console.Dispatch(cmd.Context(), domain.ToggleStatusCommand{ID: id})
	if err != nil {
		return fmt.Errorf("toggle api key: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "API key %s is now %s\n", id, ev.(domain.KeyStatusChanged).Status)
	return nil
}

// ---------- delete ----------

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an API key",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd, domain.KeyID(args[0]))
		},
	}
}

func runDelete(cmd *cobra.Command, id domain.KeyID) error {
	s, err := openSession(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.console.Dispatch(cmd.Context(), domain.DeleteKeyCommand{ID: id}); err != nil {
		return fmt.Errorf("delete api key: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted API key %s\n", id)
	return nil
}

func printKey(out io.Writer, k domain.APIKey) {
	fmt.Fprintf(out, "  ID:      %s\n", k.ID)
	fmt.Fprintf(out, "  Name:    %s\n", k.Name)
	fmt.Fprintf(out, "  Key:     %s\n", k.Key)
	fmt.Fprintf(out, "  Type:    %s\n", orDash(string(k.Type)))
	fmt.Fprintf(out, "  Status:  %s\n", k.Status)
	if k.Limit != nil {
		fmt.Fprintf(out, "  Limit:   %s\n", strconv.Itoa(*k.Limit))
	}
	if k.ExpiryDate != nil {
		fmt.Fprintf(out, "  Expires: %s\n", k.ExpiryDate)
	}
}

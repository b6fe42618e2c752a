package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/provider-matcher/internal/matching"
	"github.com/jonathan/provider-matcher/internal/observability"
	"github.com/jonathan/provider-matcher/internal/types"
)

type matchFlags struct {
	experience   string
	location     string
	requirements string
	onboarding   string
	personType   string
	priorities   string
	dryRun       bool
	jsonOutput   bool
}

func newMatchCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Find matches for a director, a nurse or a free-text profile",
	}

	var director matchFlags
	directorCmd := &cobra.Command{
		Use:   "director <name>",
		Short: "Rank nurses for a medical director",
		Long:  "Looks up an onboarded medical director by (partial) name and asks the LLM to rank eligible nurses.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := director.filters()
			if err != nil {
				return err
			}
			req := types.MatchRequest{Direction: types.DirectionDirector, Query: strings.Join(args, " "), Filters: filters}
			return runMatch(cmd, root, req, director)
		},
	}
	directorCmd.Flags().StringVar(&director.experience, "experience", "", "Preferred nurse experience level (e.g. \"New Grad\")")
	addLocationFlags(directorCmd, &director)

	var nurse matchFlags
	nurseCmd := &cobra.Command{
		Use:   "nurse <ticket>",
		Short: "Rank medical directors for a nurse",
		Long:  "Looks up a nurse by ticket and asks the LLM to rank onboarded medical directors.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := nurse.filters()
			if err != nil {
				return err
			}
			req := types.MatchRequest{Direction: types.DirectionNurse, Query: args[0], Filters: filters}
			return runMatch(cmd, root, req, nurse)
		},
	}
	nurseCmd.Flags().StringVar(&nurse.onboarding, "onboarding", "", "Onboarding support the nurse needs")
	addLocationFlags(nurseCmd, &nurse)

	var manual matchFlags
	manualCmd := &cobra.Command{
		Use:   "manual [text]",
		Short: "Classify a free-text profile and rank counterparts",
		Long:  "Sends a pasted profile to the LLM, which decides whether it describes a doctor or a nurse and ranks the other side. Reads stdin when no text is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if strings.TrimSpace(text) == "" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read profile from stdin: %w", err)
				}
				text = string(data)
			}
			req := types.MatchRequest{
				Direction: types.DirectionManual,
				Text:      strings.TrimSpace(text),
				Hints:     types.ManualHints{PersonType: manual.personType, Priorities: manual.priorities},
			}
			return runMatch(cmd, root, req, manual)
		},
	}
	manualCmd.Flags().StringVar(&manual.personType, "person-type", "", "Declared type of the profile: doctor or nurse")
	manualCmd.Flags().StringVar(&manual.priorities, "priorities", "", "Extra matching priorities")
	addOutputFlags(manualCmd, &manual)

	cmd.AddCommand(directorCmd, nurseCmd, manualCmd)
	return cmd
}

func addLocationFlags(cmd *cobra.Command, f *matchFlags) {
	cmd.Flags().StringVar(&f.location, "location", "", "Location mode: same, prefer or any")
	cmd.Flags().StringVar(&f.requirements, "requirements", "", "Space-separated keywords candidates should mention")
	addOutputFlags(cmd, f)
}

func addOutputFlags(cmd *cobra.Command, f *matchFlags) {
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Print the prompt without calling the LLM")
	cmd.Flags().BoolVar(&f.jsonOutput, "json", false, "Print the outcome as JSON")
}

func (f matchFlags) filters() (types.FilterCriteria, error) {
	mode, err := parseLocation(f.location)
	if err != nil {
		return types.FilterCriteria{}, err
	}
	return types.FilterCriteria{
		Experience:        f.experience,
		Location:          mode,
		Requirements:      f.requirements,
		OnboardingSupport: f.onboarding,
	}, nil
}

// parseLocation accepts the short aliases as well as the full mode names.
func parseLocation(value string) (types.LocationMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "any", strings.ToLower(string(types.LocationAny)):
		return types.LocationAny, nil
	case "same", strings.ToLower(string(types.LocationSameOnly)):
		return types.LocationSameOnly, nil
	case "prefer", strings.ToLower(string(types.LocationPreferSame)):
		return types.LocationPreferSame, nil
	default:
		return "", fmt.Errorf("invalid location mode %q (want same, prefer or any)", value)
	}
}

func runMatch(cmd *cobra.Command, root *rootOptions, req types.MatchRequest, f matchFlags) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, root)
	if err != nil {
		return err
	}
	defer a.Close()

	var outcome *matching.Outcome
	if f.dryRun {
		outcome, err = a.matcher.Preview(ctx, req)
	} else {
		outcome, err = a.matcher.Match(ctx, req)
	}

	out := cmd.OutOrStdout()
	printer := observability.NewPrinter(out)
	if err != nil {
		var parseErr *matching.ParseError
		if errors.As(err, &parseErr) {
			printer.PrintRawReply(parseErr.Raw)
		}
		return err
	}

	if f.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome)
	}

	switch {
	case outcome.Director != nil:
		printer.PrintDirector(outcome.Director)
	case outcome.Nurse != nil:
		printer.PrintNurse(outcome.Nurse)
	}
	printer.PrintCandidates(outcome.Candidates)

	if f.dryRun {
		fmt.Fprintln(out, outcome.Prompt)
		return nil
	}
	printer.PrintMatchResult(outcome.Result)
	return nil
}

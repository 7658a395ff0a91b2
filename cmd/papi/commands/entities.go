package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/preservio/papi/pkg/papi"
	"github.com/spf13/cobra"
)

// NewEntitiesCommand creates the entities command group.
func NewEntitiesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "entities",
		Aliases: []string{"entity"},
		Short:   "Browse the preserved-content hierarchy",
	}

	cmd.AddCommand(newEntitiesGetCommand())
	cmd.AddCommand(newEntitiesCreateFolderCommand())
	cmd.AddCommand(newEntitiesIdentifiersCommand())
	cmd.AddCommand(newEntitiesUpdatedSinceCommand())
	cmd.AddCommand(newEntitiesEventsCommand())
	cmd.AddCommand(newEntitiesLinksCommand())

	return cmd
}

func newEntitiesGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get TYPE REF",
		Short: "Fetch one entity by type (SO, IO, CO) and reference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entityType, err := parseEntityType(args[0])
			if err != nil {
				return err
			}

			client, err := newClient(cmd.Context())
			if err != nil {
				return err
			}

			entity, err := client.Entities().Get(cmd.Context(), entityType, args[1])
			if err != nil {
				return err
			}

			return renderEntity(entity)
		},
	}
}

func newEntitiesCreateFolderCommand() *cobra.Command {
	var (
		title       string
		description string
		securityTag string
		parent      string
		root        bool
	)

	cmd := &cobra.Command{
		Use:   "create-folder",
		Short: "Create a structural object",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd.Context())
			if err != nil {
				return err
			}

			entity, err := client.Entities().CreateFolder(cmd.Context(), &papi.CreateFolderRequest{
				Title:       title,
				Description: description,
				SecurityTag: papi.ParseSecurityTag(securityTag),
				Parent:      parent,
				Root:        root,
			})
			if err != nil {
				return err
			}

			return renderEntity(entity)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "folder title")
	cmd.Flags().StringVar(&description, "description", "", "folder description")
	cmd.Flags().StringVar(&securityTag, "security-tag", "open", "security tag (open, closed)")
	cmd.Flags().StringVar(&parent, "parent", "", "parent structural object reference")
	cmd.Flags().BoolVar(&root, "root", false, "create at the repository root")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newEntitiesIdentifiersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identifiers TYPE REF",
		Short: "List the external identifiers on an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entityType, err := parseEntityType(args[0])
			if err != nil {
				return err
			}

			client, err := newClient(cmd.Context())
			if err != nil {
				return err
			}

			identifiers, err := client.Entities().Identifiers(cmd.Context(), &papi.Entity{
				Type: entityType,
				Ref:  args[1],
			})
			if err != nil {
				return err
			}

			handled, err := renderStructured(identifiers)
			if handled || err != nil {
				return err
			}

			rows := make([][]string, 0, len(identifiers))
			for _, identifier := range identifiers {
				rows = append(rows, []string{identifier.Name, identifier.Value})
			}

			return renderTable([]string{"Name", "Value"}, rows)
		},
	}

	return cmd
}

func newEntitiesUpdatedSinceCommand() *cobra.Command {
	var since string

	cmd := &cobra.Command{
		Use:   "updated-since",
		Short: "List entities modified at or after a point in time",
		RunE: func(cmd *cobra.Command, args []string) error {
			sinceTime, err := time.Parse(time.RFC3339, since)
			if err != nil {
				return fmt.Errorf("parsing --since: %w", err)
			}

			client, err := newClient(cmd.Context())
			if err != nil {
				return err
			}

			entities, err := client.Entities().UpdatedSince(cmd.Context(), sinceTime)
			if err != nil {
				return err
			}

			handled, err := renderStructured(entities)
			if handled || err != nil {
				return err
			}

			rows := make([][]string, 0, len(entities))
			for _, entity := range entities {
				rows = append(rows, []string{string(entity.Type), entity.Ref, entity.Title})
			}

			return renderTable([]string{"Type", "Ref", "Title"}, rows)
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "RFC3339 timestamp, e.g. 2026-01-02T15:04:05Z")
	_ = cmd.MarkFlagRequired("since")

	return cmd
}

func newEntitiesEventsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "events TYPE REF",
		Short: "List an entity's lifecycle events, most recent first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entityType, err := parseEntityType(args[0])
			if err != nil {
				return err
			}

			client, err := newClient(cmd.Context())
			if err != nil {
				return err
			}

			events, err := client.Entities().EventActions(cmd.Context(), &papi.Entity{
				Type: entityType,
				Ref:  args[1],
			})
			if err != nil {
				return err
			}

			handled, err := renderStructured(events)
			if handled || err != nil {
				return err
			}

			rows := make([][]string, 0, len(events))
			for _, event := range events {
				rows = append(rows, []string{
					event.Date.Format(time.RFC3339),
					event.EventType,
					event.EventRef,
				})
			}

			return renderTable([]string{"Date", "Type", "Event Ref"}, rows)
		},
	}
}

func newEntitiesLinksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "links TYPE REF",
		Short: "List an entity's typed relationships",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entityType, err := parseEntityType(args[0])
			if err != nil {
				return err
			}

			client, err := newClient(cmd.Context())
			if err != nil {
				return err
			}

			links, err := client.Entities().Links(cmd.Context(), &papi.Entity{
				Type: entityType,
				Ref:  args[1],
			})
			if err != nil {
				return err
			}

			handled, err := renderStructured(links)
			if handled || err != nil {
				return err
			}

			rows := make([][]string, 0, len(links))
			for _, link := range links {
				rows = append(rows, []string{link.LinkType, string(link.Type), link.Ref})
			}

			return renderTable([]string{"Link Type", "Type", "Ref"}, rows)
		},
	}
}

func renderEntity(entity *papi.Entity) error {
	handled, err := renderStructured(entity)
	if handled || err != nil {
		return err
	}

	return renderTable(
		[]string{"Property", "Value"},
		[][]string{
			{"Type", string(entity.Type)},
			{"Ref", entity.Ref},
			{"Title", entity.Title},
			{"Description", entity.Description},
			{"Security Tag", string(entity.SecurityTag)},
			{"Parent", entity.Parent},
			{"Deleted", strconv.FormatBool(entity.Deleted)},
		},
	)
}

package main

import (
	"fmt"
	"time"

	"custody-go/internal/custody"
	"custody-go/internal/database/sqlc"

	"github.com/spf13/cobra"
)

var docCmd = &cobra.Command{
	Use:   "doc",
	Short: "Work with documents of a collection",
}

func printDocuments(docs []*sqlc.Document) {
	if len(docs) == 0 {
		fmt.Println("No documents.")
		return
	}
	for _, d := range docs {
		fmt.Printf("%s  %10d  %s  %s\n", d.ID, d.Size, d.Hash[:12], d.Name)
	}
}

var docSearchCmd = &cobra.Command{
	Use:   "search COLLECTION NAME",
	Short: "Find live documents by exact name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "SearchDocuments")
		if err != nil {
			return err
		}
		defer a.Close()

		docs, err := a.SearchDocuments(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		printDocuments(docs)
		return nil
	},
}

var docFilterCmd = &cobra.Command{
	Use:   "filter COLLECTION",
	Short: "List live documents by name, size or last access",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var filter custody.DocumentFilter
		if cmd.Flags().Changed("name") {
			name, _ := cmd.Flags().GetString("name")
			filter.Name = &name
		}
		if cmd.Flags().Changed("max-size") {
			size, _ := cmd.Flags().GetInt64("max-size")
			filter.MaxSize = &size
		}
		if cmd.Flags().Changed("since") {
			since, _ := cmd.Flags().GetDuration("since")
			t := time.Now().Add(-since)
			filter.LastAccess = &t
		}

		a, err := newApp(cmd, "FilterDocuments")
		if err != nil {
			return err
		}
		defer a.Close()

		docs, err := a.FilterDocuments(cmd.Context(), args[0], filter)
		if err != nil {
			return err
		}
		printDocuments(docs)
		return nil
	},
}

var docUpdateCmd = &cobra.Command{
	Use:   "update COLLECTION DOCUMENT PATH",
	Short: "Upload a new version of a document",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "UpdateDocument")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.UpdateDocument(cmd.Context(), args[0], args[1], args[2]); err != nil {
			return fmt.Errorf("updating document: %w", err)
		}
		fmt.Printf("Updated document %s\n", args[1])
		return nil
	},
}

var docDeleteCmd = &cobra.Command{
	Use:   "delete COLLECTION DOCUMENT",
	Short: "Delete a document and all its versions",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "DeleteDocument")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.DeleteDocument(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Deleted document %s\n", args[1])
		return nil
	},
}

var docHistoryCmd = &cobra.Command{
	Use:   "history COLLECTION DOCUMENT",
	Short: "Show the versions and events of a document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "DocumentHistory")
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.DocumentHistory(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		for _, e := range entries {
			detail := e.DocumentID
			if e.Update != nil {
				detail = e.Update.PreviousID + " -> " + e.Update.UpdatedID
			}
			fmt.Printf("%s  %-9s  %s  by %s\n", formatTime(e.Time), e.Kind(), detail, e.UserID)
		}
		return nil
	},
}

var docGetCmd = &cobra.Command{
	Use:   "get COLLECTION DOCUMENT",
	Short: "Download one version of a document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")

		a, err := newApp(cmd, "GetDocument")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := unlockIfSealed(a); err != nil {
			return err
		}
		path, err := a.GetDocument(cmd.Context(), args[0], args[1], dir)
		if err != nil {
			return fmt.Errorf("downloading document: %w", err)
		}
		fmt.Printf("Saved %s\n", path)
		return nil
	},
}

func init() {
	docCmd.AddCommand(docSearchCmd)

	docCmd.AddCommand(docFilterCmd)
	docFilterCmd.Flags().String("name", "", "Exact document name")
	docFilterCmd.Flags().Int64("max-size", 0, "Largest size in bytes")
	docFilterCmd.Flags().Duration("since", 0, "Only documents accessed within this duration (e.g. 72h)")

	docCmd.AddCommand(docUpdateCmd)
	docCmd.AddCommand(docDeleteCmd)
	docCmd.AddCommand(docHistoryCmd)

	docCmd.AddCommand(docGetCmd)
	docGetCmd.Flags().StringP("dir", "d", ".", "Directory to save into")
}

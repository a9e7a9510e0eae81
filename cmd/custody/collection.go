package main

import (
	"fmt"
	"time"

	"custody-go/internal/custody"

	"github.com/disiqueira/gotree/v3"
	"github.com/spf13/cobra"
)

var collectionCmd = &cobra.Command{
	Use:     "collection",
	Aliases: []string{"col"},
	Short:   "Manage collections",
}

var collectionCreateCmd = &cobra.Command{
	Use:   "create PATH",
	Short: "Ingest a file, tar bundle or directory as a new collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := collectionOptions(cmd)
		if err != nil {
			return err
		}

		a, err := newApp(cmd, "CreateCollection")
		if err != nil {
			return err
		}
		defer a.Close()

		col, err := a.CreateCollection(cmd.Context(), args[0], opts)
		if err != nil {
			return fmt.Errorf("creating collection: %w", err)
		}
		fmt.Printf("Created collection %s (%s)\n", col.ID, col.Name)
		return nil
	},
}

func collectionOptions(cmd *cobra.Command) (custody.CollectionOptions, error) {
	name, _ := cmd.Flags().GetString("name")
	share, _ := cmd.Flags().GetString("share")
	from, _ := cmd.Flags().GetString("access-from")
	manifest, _ := cmd.Flags().GetString("manifest-hash")
	address, _ := cmd.Flags().GetString("tx-address")

	state, err := custody.ParseShareState(share)
	if err != nil {
		return custody.CollectionOptions{}, err
	}
	opts := custody.CollectionOptions{
		Name:               name,
		ShareState:         state,
		ManifestHash:       manifest,
		TransactionAddress: address,
	}
	if from != "" {
		t, err := time.ParseInLocation("2006-01-02", from, time.Local)
		if err != nil {
			return opts, fmt.Errorf("parsing --access-from: %w", err)
		}
		opts.AccessFromDate = &t
	}
	return opts, nil
}

var collectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections visible to the acting user",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "ListCollections")
		if err != nil {
			return err
		}
		defer a.Close()

		cols, err := a.ListCollections(cmd.Context())
		if err != nil {
			return err
		}
		if len(cols) == 0 {
			fmt.Println("No collections.")
			return nil
		}
		for _, c := range cols {
			fmt.Printf("%s  %-10s  %s\n", c.ID, c.ShareState, c.Name)
		}
		return nil
	},
}

var collectionInfoCmd = &cobra.Command{
	Use:   "info ID",
	Short: "Show a collection summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "CollectionInfo")
		if err != nil {
			return err
		}
		defer a.Close()

		info, err := a.CollectionInfo(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		col := info.Collection
		fmt.Printf("ID:          %s\n", col.ID)
		fmt.Printf("Name:        %s\n", col.Name)
		fmt.Printf("Owner:       %s\n", info.Owner.Email)
		fmt.Printf("Sharing:     %s\n", col.ShareState)
		if col.AccessFromDate.Valid {
			fmt.Printf("Access from: %s\n", formatTime(col.AccessFromDate.Time))
		}
		fmt.Printf("Created:     %s\n", formatTime(info.Created))
		fmt.Printf("Last access: %s\n", formatTime(info.LastAccess))
		fmt.Printf("Documents:   %d (%d bytes)\n", info.Documents, info.TotalSize)
		return nil
	},
}

var collectionTreeCmd = &cobra.Command{
	Use:   "tree ID",
	Short: "Show the folder tree of a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "CollectionTree")
		if err != nil {
			return err
		}
		defer a.Close()

		root, err := a.CollectionTree(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		tree := gotree.New(root.Name)
		addTreeNodes(tree, root)
		fmt.Print(tree.Print())
		return nil
	},
}

func addTreeNodes(t gotree.Tree, node *custody.FolderNode) {
	for _, child := range node.Folders {
		addTreeNodes(t.Add(child.Name+"/"), child)
	}
	for _, doc := range node.Documents {
		label := doc.NodeName()
		if ref, ok := doc.(*custody.DocumentRef); ok {
			label = fmt.Sprintf("%s  [%s, %d bytes]", label, ref.Document.ID, ref.Document.Size)
		}
		t.Add(label)
	}
}

var collectionRenameCmd = &cobra.Command{
	Use:   "rename ID NAME",
	Short: "Rename a collection",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "RenameCollection")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.RenameCollection(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Renamed %s to %q\n", args[0], args[1])
		return nil
	},
}

var collectionDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "DeleteCollection")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.DeleteCollection(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted collection %s\n", args[0])
		return nil
	},
}

var collectionExportCmd = &cobra.Command{
	Use:   "export ID",
	Short: "Export the live tree of a collection as tar.gz",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")
		email, _ := cmd.Flags().GetString("for")

		a, err := newApp(cmd, "ExportCollection")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := unlockIfSealed(a); err != nil {
			return err
		}

		var path string
		if email != "" {
			path, err = a.ExportCollectionForEmail(cmd.Context(), email, args[0], out)
		} else {
			path, err = a.ExportCollection(cmd.Context(), args[0], out)
		}
		if err != nil {
			return fmt.Errorf("exporting collection: %w", err)
		}
		fmt.Printf("Exported to %s\n", path)
		return nil
	},
}

func init() {
	collectionCmd.AddCommand(collectionCreateCmd)
	collectionCreateCmd.Flags().String("name", "", "Collection name (default: file or directory name)")
	collectionCreateCmd.Flags().String("share", "private", "Sharing: private, public, embargoed or restricted")
	collectionCreateCmd.Flags().String("access-from", "", "Embargo date YYYY-MM-DD before which only the owner may read")
	collectionCreateCmd.Flags().String("manifest-hash", "", "Manifest hash to verify")
	collectionCreateCmd.Flags().String("tx-address", "", "Ledger reference for the manifest")

	collectionCmd.AddCommand(collectionListCmd)
	collectionCmd.AddCommand(collectionInfoCmd)
	collectionCmd.AddCommand(collectionTreeCmd)
	collectionCmd.AddCommand(collectionRenameCmd)
	collectionCmd.AddCommand(collectionDeleteCmd)

	collectionCmd.AddCommand(collectionExportCmd)
	collectionExportCmd.Flags().StringP("output", "o", "", "Output file (default: <ID>.tar.gz)")
	collectionExportCmd.Flags().String("for", "", "Export on behalf of this email instead of --as")
}

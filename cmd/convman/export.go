package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/convman/internal/dispatch"
	"github.com/Zuo-Peng/convman/internal/export"
)

func exportCmd() *cobra.Command {
	var src sourceFlags
	var format, outDir, savedID string

	cmd := &cobra.Command{
		Use:   "export [page.html]",
		Short: "Write the conversation as JSON and/or text files",
		Long: `Export the open conversation, or a saved one with --id. Files are named
<title>_<YYYY-MM-DD>.json / .txt and written to --out.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if savedID != "" {
				return exportSaved(cmd, savedID, format, outDir)
			}

			source, err := src.source(cfg, pathArg(args, 0))
			if err != nil {
				return err
			}
			resp := newDispatcher(cfg, source, nil).Handle(ctx, dispatch.Request{Action: dispatch.ActionDownload, Format: format})
			if err := failed(resp); err != nil {
				return err
			}
			files, err := dispatch.Files(resp)
			if err != nil {
				return err
			}
			for _, f := range files {
				if err := writeExport(outDir, f.Name, []byte(f.Content)); err != nil {
					return err
				}
			}
			return nil
		},
	}

	src.bind(cmd)
	cmd.Flags().StringVar(&format, "format", "json", "json, txt or both")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Output directory")
	cmd.Flags().StringVar(&savedID, "id", "", "Export a saved conversation instead")
	return cmd
}

func exportSaved(cmd *cobra.Command, id, format, outDir string) error {
	ctx := cmd.Context()
	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	c, err := st.Get(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("saved conversation not found: %s", id)
	}

	doc := export.FromConversation(c)
	for _, one := range []export.Format{export.FormatJSON, export.FormatTXT} {
		if f != one && f != export.FormatBoth {
			continue
		}
		path := filepath.Join(outDir, export.FileName(doc.Title, c.SavedAt, one))
		if err := writeFile(path, func(w *os.File) error {
			if one == export.FormatJSON {
				return export.WriteJSON(w, doc)
			}
			return export.WriteTXT(w, doc)
		}); err != nil {
			return err
		}
		fmt.Println(path)
	}
	return nil
}

func writeExport(dir, name string, content []byte) error {
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Println(path)
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

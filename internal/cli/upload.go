package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mithrel/docman/internal/editor"
	"github.com/mithrel/docman/internal/tags"
	"github.com/mithrel/docman/internal/upload"
	"github.com/mithrel/docman/internal/util"
)

type uploadFlags struct {
	file        string
	majorHead   string
	minorHead   string
	date        string
	remarks     string
	editRemarks bool
	tags        []string
	userID      string
	dryRun      bool
}

func newUploadCmd() *cobra.Command {
	var f uploadFlags
	cmd := &cobra.Command{
		Use:   "upload [file]",
		Short: "Upload a document with its metadata",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			if len(args) == 1 {
				if f.file != "" && f.file != args[0] {
					return fmt.Errorf("file given twice: %q and --file %q", args[0], f.file)
				}
				f.file = args[0]
			}
			if f.userID == "" {
				f.userID = app.Cfg.GetString("user_id")
			}
			if stdinIsTerminal(cmd) && (f.file == "" || f.majorHead == "" || f.minorHead == "" || f.userID == "") {
				if err := promptUpload(&f); err != nil {
					return err
				}
			}

			date := f.date
			if date == "" {
				date = "today"
			}
			date, err := util.NormalizeDate(date, time.Now())
			if err != nil {
				return fmt.Errorf("invalid --date: %w", err)
			}

			set := tags.New()
			for _, t := range f.tags {
				set.AddCSV(t)
			}

			var file upload.File
			if f.file != "" {
				lf, err := upload.OpenFile(f.file)
				if err != nil {
					return err
				}
				file = lf
			}

			remarks := f.remarks
			if f.editRemarks {
				if file == nil {
					return fmt.Errorf("--edit-remarks needs a file")
				}
				remarks, err = editRemarks(file.Name(), set, remarks)
				if err != nil {
					return err
				}
			}

			p, err := upload.Build(upload.Metadata{
				MajorHead:       f.majorHead,
				MinorHead:       f.minorHead,
				DocumentDate:    date,
				DocumentRemarks: remarks,
				UserID:          f.userID,
			}, file, set)
			if err != nil {
				return err
			}
			digest, err := upload.Digest(p.File)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if f.dryRun {
				_, _ = fmt.Fprintf(out, "file: %s (%d bytes, %s)\n", p.File.Name(), p.File.Size(), p.File.ContentType())
				_, _ = fmt.Fprintf(out, "blake3: %s\n", digest)
				_, _ = fmt.Fprintf(out, "data: %s\n", p.JSON)
				return nil
			}

			app.Log.Debug("uploading", zap.String("file", p.File.Name()), zap.String("blake3", digest))
			if err := app.Client.SaveDocument(cmd.Context(), p); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "Document uploaded successfully: %s (blake3 %s)\n", p.File.Name(), digest)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.file, "file", "f", "", "path of the document to upload")
	fl.StringVar(&f.majorHead, "major-head", "", "major head (category)")
	fl.StringVar(&f.minorHead, "minor-head", "", "minor head (sub-category)")
	fl.StringVar(&f.date, "date", "", "document date: DD-MM-YYYY, YYYY-MM-DD, today, 3d (default today)")
	fl.StringVar(&f.remarks, "remarks", "", "free-form remarks")
	fl.BoolVarP(&f.editRemarks, "edit-remarks", "e", false, "write remarks and tags in $EDITOR")
	fl.StringSliceVarP(&f.tags, "tags", "t", nil, "tags (comma-separated, repeatable)")
	fl.StringVar(&f.userID, "user-id", "", "uploader id (default from config user_id)")
	fl.BoolVar(&f.dryRun, "dry-run", false, "validate and print the payload without sending it")
	return cmd
}

// promptUpload asks for whatever required field is still empty.
func promptUpload(f *uploadFlags) error {
	notEmpty := func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("required")
		}
		return nil
	}
	var fields []huh.Field
	if f.file == "" {
		fields = append(fields, huh.NewInput().Title("File").Value(&f.file).Validate(func(s string) error {
			if err := notEmpty(s); err != nil {
				return err
			}
			_, err := os.Stat(s)
			return err
		}))
	}
	if f.majorHead == "" {
		fields = append(fields, huh.NewInput().Title("Major head").Value(&f.majorHead).Validate(notEmpty))
	}
	if f.minorHead == "" {
		fields = append(fields, huh.NewInput().Title("Minor head").Value(&f.minorHead).Validate(notEmpty))
	}
	if f.userID == "" {
		fields = append(fields, huh.NewInput().Title("User id").Value(&f.userID).Validate(notEmpty))
	}
	if len(fields) == 0 {
		return nil
	}
	return huh.NewForm(huh.NewGroup(fields...)).Run()
}

func editRemarks(fileName string, set *tags.Set, remarks string) (string, error) {
	path, err := editor.PathFor(fileName)
	if err != nil {
		return "", err
	}
	defer os.Remove(path)
	initial := editor.ComposeRemarks(fileName, set.Names(), remarks)
	final, changed, err := editor.OpenAt(path, []byte(initial))
	if err != nil {
		return "", err
	}
	if !changed {
		return remarks, nil
	}
	edited, body := editor.ParseRemarks(string(final))
	set.Clear()
	for _, t := range edited {
		set.Add(t)
	}
	return body, nil
}

// Package process drives alignment of SVG documents coming from standard
// input, files, directories and zip archives.
package process

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"svgalign/archive"
	"svgalign/config"
	"svgalign/misc"
	"svgalign/state"
	"svgalign/utils/images"
)

// stdioName designates standard input or output on the command line.
const stdioName = "-"

var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
)

// Run is the "align" command action.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("process")

	src, dst := cmd.Args().Get(0), cmd.Args().Get(1)
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old archives
	if cp := cmd.String("force-zip-cp"); len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil || env.CodePage == nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully converting all non UTF-8 file names in archives", zap.String("charset", n))
		}
	}

	if err := env.LoadFont(); err != nil {
		return err
	}

	log.Info("Processing starting",
		zap.String("source", displayName(src)), zap.String("destination", displayName(dst)),
		zap.String("font", env.Face.Family()), zap.Float32("scale_correction", env.Face.ScaleCorrection()))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, log)
}

func displayName(name string) string {
	if len(name) == 0 || name == stdioName {
		return "STDIO"
	}
	return name
}

// process handles the core processing logic independently of CLI framework.
// It determines the input type (standard input, directory, archive, or
// single file) and processes accordingly.
func process(ctx context.Context, src, dst string, log *zap.Logger) (err error) {
	if len(src) == 0 || src == stdioName {
		return processStdin(ctx, dst, log)
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}

	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			out, err := batchDestination(dst)
			if err != nil {
				return err
			}
			if err := processDir(ctx, head, out, log); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			return nil
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		arc, err := isArchiveFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if arc {
			out, err := batchDestination(dst)
			if err != nil {
				return err
			}
			// we need to look inside to see if path makes sense
			tail = strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			if err := processArchive(ctx, head, filepath.ToSlash(tail), "", out, log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			return nil
		}

		if len(tail) != 0 {
			return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		// explicitly named document is not sniffed, parser decides
		out, err := singleDestination(filepath.Base(head), dst)
		if err != nil {
			return err
		}
		file, err := os.Open(head)
		if err != nil {
			return err
		}
		defer file.Close()
		enc, err := detectEncoding(file)
		if err != nil {
			return fmt.Errorf("unable to read input: %w", err)
		}
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("unable to read input: %w", err)
		}
		return processDocument(ctx, file, enc, filepath.Base(head), out, log)
	}
	return fmt.Errorf("input source was not found (%s)", src)
}

// processStdin reads single document from standard input, any well formed
// XML is accepted.
func processStdin(ctx context.Context, dst string, log *zap.Logger) error {
	data, err := io.ReadAll(stdin)
	if err != nil {
		return fmt.Errorf("unable to read standard input: %w", err)
	}
	out, err := singleDestination("stdin"+outputExt, dst)
	if err != nil {
		return err
	}
	return processDocument(ctx, bytes.NewReader(data), detectUTF(data), "STDIN", out, log)
}

// singleDestination returns output file for a single document, empty string
// means standard output. Destination with svg extension is a file name,
// anything else is a directory.
func singleDestination(src, dst string) (string, error) {
	if len(dst) == 0 || dst == stdioName {
		return "", nil
	}
	dst, err := filepath.Abs(dst)
	if err != nil {
		return "", err
	}
	if hasSVGExt(dst) {
		return dst, nil
	}
	return filepath.Join(dst, filepath.Base(strings.TrimSuffix(src, filepath.Ext(src))+outputExt)), nil
}

// batchDestination returns output directory for multiple documents.
func batchDestination(dst string) (string, error) {
	switch dst {
	case stdioName:
		return "", errors.New("multiple documents cannot be written to standard output")
	case "":
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("unable to get working directory: %w", err)
		}
		return wd, nil
	}
	return filepath.Abs(dst)
}

// processDir walks directory tree finding svg files and archives and
// processes them. Failure of a single document does not stop processing,
// all failures are returned together.
func processDir(ctx context.Context, dir, dst string, log *zap.Logger) (errs error) {
	env := state.EnvFromContext(ctx)

	count := 0
	defer func() {
		if errs == nil && count == 0 {
			log.Info("Nothing to process", zap.String("dir", dir))
		}
	}()

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		rel := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))

		arc, err := isArchiveFile(path)
		if err != nil {
			// checking format - but cannot open target file
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if arc {
			count++
			if err := processArchive(ctx, path, "", filepath.Dir(rel), dst, log); err != nil {
				log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", path, err))
			}
			return nil
		}

		isSVG, enc, err := isSVGFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if !isSVG {
			log.Debug("Skipping file, not recognized as SVG document or archive", zap.String("file", path))
			return nil
		}

		count++

		file, err := os.Open(path)
		if err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
			errs = multierr.Append(errs, err)
			return nil
		}
		defer file.Close()

		if err := processDocument(ctx, file, enc, rel, buildOutputPath(rel, dst, env), log); err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", path, err))
		}
		return nil
	})
	return multierr.Append(err, errs)
}

// processArchive walks all files inside archive, finds svg files under
// "pathIn" and processes them. "pathOut" is prepended to location of every
// document inside archive when building output path.
func processArchive(ctx context.Context, path, pathIn, pathOut, dst string, log *zap.Logger) (errs error) {
	env := state.EnvFromContext(ctx)

	count := 0
	defer func() {
		if errs == nil && count == 0 {
			log.Info("Nothing to process", zap.String("archive", path), zap.String("path", pathIn))
		}
	}()

	err := archive.Walk(path, pathIn, func(archive string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		isSVG, enc, err := isSVGInArchive(f)
		if err != nil {
			log.Warn("Skipping file in archive",
				zap.String("archive", archive), zap.String("path", f.FileHeader.Name), zap.Error(err))
			return nil
		}
		if !isSVG {
			log.Debug("Skipping file, not recognized as SVG document", zap.String("archive", archive), zap.String("file", f.FileHeader.Name))
			return nil
		}

		count++

		r, err := f.Open()
		if err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", archive), zap.String("file", f.FileHeader.Name), zap.Error(err))
			errs = multierr.Append(errs, err)
			return nil
		}
		defer r.Close()

		pathInArchive := f.FileHeader.Name
		if cp := env.CodePage; cp != nil && f.FileHeader.NonUTF8 {
			// forcing zip file name encoding
			if n, err := cp.NewDecoder().String(pathInArchive); err == nil {
				pathInArchive = n
			} else {
				n, _ = ianaindex.IANA.Name(cp)
				log.Warn("Unable to convert archive name from specified encoding",
					zap.String("charset", n), zap.String("path", pathInArchive), zap.Error(err))
			}
		}
		src := filepath.Join(pathOut, filepath.FromSlash(pathInArchive))
		if err := processDocument(ctx, r, enc, src, buildOutputPath(src, dst, env), log); err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", archive), zap.String("file", f.FileHeader.Name), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s: %s: %w", archive, f.FileHeader.Name, err))
		}
		return nil
	})
	return multierr.Append(err, errs)
}

// processDocument aligns single SVG document. "src" names the document for
// logs and report. "out" is the output file, empty for standard output.
// Output is written only when the whole document was aligned successfully.
func processDocument(ctx context.Context, r io.Reader, enc srcEncoding, src, out string, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	var (
		d      *Document
		result = displayName(out)
	)

	log.Info("Alignment starting", zap.String("from", src))
	defer func(start time.Time) {
		// NOTE: rasterizer used for previews is not mature enough, if
		// multiple documents are being processed we do not want to stop.
		if r := recover(); r != nil {
			log.Error("Alignment ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", result), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("alignment panic: %v", r)
			return
		}
		if rerr != nil || d == nil {
			return
		}
		fields := []zap.Field{zap.Duration("elapsed", time.Since(start)), zap.String("to", result), zap.Stringer("ref_id", d.RefID())}
		if res := d.Result(); res != nil {
			fields = append(fields, zap.Int("targets", res.Targets), zap.Int("aligned", res.Applied()), zap.Int("skipped", res.Skipped()))
		}
		log.Info("Alignment completed", fields...)
	}(time.Now())

	d, err := readDocument(ctx, r, enc, src, log)
	if err != nil {
		return err
	}
	prefix := "documents/" + d.RefID().String() + "/"
	env.Rpt.StoreData(prefix+"source-"+config.CleanFileName(filepath.Base(src)), d.Raw())

	if err := d.align(env.Aligner()); err != nil {
		return fmt.Errorf("unable to align %s: %w", src, err)
	}
	env.Rpt.StoreData(prefix+"alignment.txt", fmt.Appendf(nil, "Source: %s\nDestination: %s\n\n%s", src, result, d.Result()))

	data, err := d.bytes(env.Cfg.Document.Output.Minify)
	if err != nil {
		return err
	}
	if err := writeOutput(out, data, env.Overwrite, log); err != nil {
		return err
	}

	if env.Rpt != nil {
		env.Rpt.StoreData(prefix+"result.svg", data)
		if p := env.Rpt.Preview(); p != nil {
			if png, err := images.Preview(data, p.Width, p.Height); err != nil {
				log.Warn("Unable to prepare preview", zap.String("from", src), zap.Error(err))
			} else {
				env.Rpt.StoreData(prefix+"preview.png", png)
			}
		}
	}
	return nil
}

// writeOutput writes data to the output file replacing it atomically, or to
// standard output when name is empty.
func writeOutput(name string, data []byte, overwrite bool, log *zap.Logger) (err error) {
	if len(name) == 0 {
		_, err = stdout.Write(data)
		return err
	}

	if _, err := os.Stat(name); err == nil {
		if !overwrite {
			return fmt.Errorf("output file already exists: %s", name)
		}
		log.Warn("Overwriting existing file", zap.String("file", name))
	} else if !os.IsNotExist(err) {
		return err
	}

	dir := filepath.Dir(name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+misc.GetAppName()+"-*"+outputExt)
	if err != nil {
		return fmt.Errorf("unable to create output file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("unable to write output file: %w", err)
	}
	if err = tmp.Chmod(0644); err != nil {
		return fmt.Errorf("unable to write output file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("unable to write output file: %w", err)
	}
	if err = os.Rename(tmp.Name(), name); err != nil {
		return fmt.Errorf("unable to write output file: %w", err)
	}
	return nil
}

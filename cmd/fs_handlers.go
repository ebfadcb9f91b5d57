package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/sahib/nandfs/chunkfs"
	"github.com/sahib/nandfs/util"
	"github.com/urfave/cli"
)

func handleNew(ctx *cli.Context, dev *chunkfs.Device) error {
	obj, err := dev.NewObject()
	if err != nil {
		return ExitCode{UnknownError, fmt.Sprintf("new: %v", err)}
	}

	fmt.Println(obj.ID)
	return nil
}

func handlePut(ctx *cli.Context, dev *chunkfs.Device) error {
	localPath := ctx.Args().Get(0)

	var r io.Reader
	if localPath == "-" {
		r = os.Stdin
	} else {
		fd, err := os.Open(localPath) // #nosec
		if err != nil {
			return ExitCode{UnknownError, fmt.Sprintf("put: %v", err)}
		}

		defer util.Closer(fd)
		r = fd
	}

	var obj *chunkfs.Object
	if len(ctx.Args()) > 1 {
		id, err := parseObjectID(ctx.Args().Get(1))
		if err != nil {
			return ExitCode{BadArgs, err.Error()}
		}

		obj, err = dev.Object(id)
		if err != nil {
			return ExitCode{UnknownError, fmt.Sprintf("put: %v", err)}
		}

		// Without an explicit offset `put` replaces the old contents.
		// With one it patches the object in place.
		if !ctx.IsSet("offset") {
			if err := obj.Truncate(0); err != nil {
				return ExitCode{UnknownError, fmt.Sprintf("put: %v", err)}
			}
		}
	} else {
		var err error
		obj, err = dev.NewObject()
		if err != nil {
			return ExitCode{UnknownError, fmt.Sprintf("put: %v", err)}
		}
	}

	off := ctx.Int64("offset")
	buf := make([]byte, 64*1024)

	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			if _, werr := obj.WriteAt(buf[:n], off); werr != nil {
				return ExitCode{UnknownError, fmt.Sprintf("put: %v", werr)}
			}

			off += int64(n)
		}

		if rerr == io.EOF {
			break
		}

		if rerr != nil {
			return ExitCode{UnknownError, fmt.Sprintf("put: %v", rerr)}
		}
	}

	fmt.Println(obj.ID)
	return nil
}

func handleCat(ctx *cli.Context, dev *chunkfs.Device) error {
	id, err := parseObjectID(ctx.Args().First())
	if err != nil {
		return ExitCode{BadArgs, err.Error()}
	}

	obj, err := dev.Object(id)
	if err != nil {
		return ExitCode{UnknownError, fmt.Sprintf("cat: %v", err)}
	}

	remaining := int64(-1)
	if sizeStr := ctx.String("size"); sizeStr != "" {
		size, err := humanize.ParseBytes(sizeStr)
		if err != nil {
			return ExitCode{BadArgs, fmt.Sprintf("cat: bad size: %v", err)}
		}

		remaining = int64(size)
	}

	off := ctx.Int64("offset")
	buf := make([]byte, 64*1024)

	for remaining != 0 {
		n := int64(len(buf))
		if remaining > 0 && remaining < n {
			n = remaining
		}

		nread, rerr := obj.ReadAt(buf[:n], off)
		if nread > 0 {
			if _, werr := os.Stdout.Write(buf[:nread]); werr != nil {
				return ExitCode{UnknownError, fmt.Sprintf("cat: %v", werr)}
			}

			off += int64(nread)
			if remaining > 0 {
				remaining -= int64(nread)
			}
		}

		if rerr == io.EOF {
			break
		}

		if rerr != nil {
			return ExitCode{UnknownError, fmt.Sprintf("cat: %v", rerr)}
		}
	}

	return nil
}

func handleRm(ctx *cli.Context, dev *chunkfs.Device) error {
	id, err := parseObjectID(ctx.Args().First())
	if err != nil {
		return ExitCode{BadArgs, err.Error()}
	}

	obj, err := dev.Object(id)
	if err != nil {
		return ExitCode{UnknownError, fmt.Sprintf("rm: %v", err)}
	}

	if err := obj.Remove(); err != nil {
		return ExitCode{UnknownError, fmt.Sprintf("rm: %v", err)}
	}

	return nil
}

func handleTruncate(ctx *cli.Context, dev *chunkfs.Device) error {
	id, err := parseObjectID(ctx.Args().Get(0))
	if err != nil {
		return ExitCode{BadArgs, err.Error()}
	}

	size, err := humanize.ParseBytes(ctx.Args().Get(1))
	if err != nil {
		return ExitCode{BadArgs, fmt.Sprintf("truncate: bad size: %v", err)}
	}

	obj, err := dev.Object(id)
	if err != nil {
		return ExitCode{UnknownError, fmt.Sprintf("truncate: %v", err)}
	}

	if err := obj.Truncate(int64(size)); err != nil {
		return ExitCode{UnknownError, fmt.Sprintf("truncate: %v", err)}
	}

	return nil
}

func handleList(ctx *cli.Context, dev *chunkfs.Device) error {
	objs, err := dev.Objects()
	if err != nil {
		return ExitCode{UnknownError, fmt.Sprintf("ls: %v", err)}
	}

	tmpl, err := readFormatTemplate(ctx)
	if err != nil {
		return err
	}

	if tmpl != nil {
		for _, obj := range objs {
			entry := struct {
				ID   uint64
				Size int64
			}{obj.ID, obj.Size()}

			if err := tmpl.Execute(os.Stdout, entry); err != nil {
				return err
			}
		}

		return nil
	}

	tabW := tabwriter.NewWriter(
		os.Stdout, 0, 0, 2, ' ',
		tabwriter.StripEscape,
	)

	if len(objs) != 0 {
		fmt.Fprintln(tabW, "ID\tSIZE\t")
	}

	for _, obj := range objs {
		fmt.Fprintf(
			tabW,
			"%d\t%s\t\n",
			obj.ID,
			humanize.Bytes(uint64(obj.Size())),
		)
	}

	return tabW.Flush()
}

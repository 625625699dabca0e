package main

import (
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"pngconverter/internal/convert"
)

func main() {
	in := flag.String("in", "", "source PNG file")
	outDir := flag.String("out-dir", ".", "directory for the converted JPEG")
	quality := flag.Int("quality", convert.DefaultQuality, "JPEG quality (1-100)")
	flag.Parse()

	if *in == "" {
		fmt.Fprintf(os.Stderr, "usage: %s -in file.png [-out-dir dir] [-quality 1-100]\n", os.Args[0])
		os.Exit(2)
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		fatal(err)
	}

	ctrl := convert.New()
	ctrl.SetProgressFunc(func(percent int, message string) {
		fmt.Printf("%3d%% %s\n", percent, message)
	})
	if err := ctrl.SetQuality(*quality); err != nil {
		fatal(err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(*in))
	if err := ctrl.SelectFile(filepath.Base(*in), mimeType, data); err != nil {
		fatal(err)
	}
	name, size, _ := ctrl.FileInfo()
	fmt.Printf("selected %s (%s)\n", name, size)

	if err := ctrl.Convert(); err != nil {
		fatal(err)
	}
	path, err := ctrl.SaveOutput(*outDir)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("saved %s\n", path)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

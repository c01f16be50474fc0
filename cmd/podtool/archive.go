package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Faultbox/fury3-assets/pkg/encoding"
	"github.com/Faultbox/fury3-assets/pkg/formats"
	"github.com/Faultbox/fury3-assets/pkg/pod"
)

var errUsage = errors.New("invalid arguments")

func cmdInfo(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: podtool info <file.pod>", errUsage)
	}

	archive, err := pod.Open(args[0])
	if err != nil {
		return err
	}
	defer archive.Close()

	entries := archive.Entries()

	folderCount := make(map[string]int)
	extCount := make(map[string]int)
	kindCount := make(map[string]int)
	var totalSize uint64
	for _, e := range entries {
		name := e.Name.String()
		dir, file := encoding.SplitPath(name)
		if dir == "" {
			dir = "(root)"
		}
		folderCount[dir]++

		ext := strings.ToUpper(path.Ext(file))
		if ext == "" {
			ext = "(no ext)"
		}
		extCount[ext]++
		kindCount[formats.KindOf(name).String()]++
		totalSize += uint64(e.Size)
	}

	fmt.Printf("Archive: %s\n", args[0])
	fmt.Printf("Comment: %s\n", archive.Comment())
	fmt.Printf("Files:   %d\n", len(entries))
	fmt.Printf("Size:    %.2f MB\n", float64(totalSize)/(1024*1024))

	fmt.Println()
	fmt.Println("Files by folder:")
	printCounts(folderCount)

	fmt.Println()
	fmt.Println("Files by extension:")
	printCounts(extCount)

	fmt.Println()
	fmt.Println("Files by kind:")
	printCounts(kindCount)

	return nil
}

func printCounts(counts map[string]int) {
	type stat struct {
		key   string
		count int
	}
	stats := make([]stat, 0, len(counts))
	for k, n := range counts {
		stats = append(stats, stat{k, n})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].count != stats[j].count {
			return stats[i].count > stats[j].count
		}
		return stats[i].key < stats[j].key
	})

	for _, s := range stats {
		fmt.Printf("  %-10s %d\n", s.key, s.count)
	}
}

// matchName reports whether an archive name matches a glob or substring
// pattern. Globs are matched against the file part only.
func matchName(name, pattern string) bool {
	if pattern == "" {
		return true
	}
	_, file := encoding.SplitPath(name)
	pattern = strings.ToLower(pattern)
	matched, _ := path.Match(pattern, strings.ToLower(file))
	return matched || strings.Contains(strings.ToLower(name), pattern)
}

func cmdList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	limit := fs.Int("n", 0, "Limit output to N files (0 = all)")
	long := fs.Bool("l", false, "Show size and offset")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("%w: podtool list <file.pod> [pattern]", errUsage)
	}

	archive, err := pod.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer archive.Close()

	pattern := fs.Arg(1)
	count := 0
	for _, e := range archive.Entries() {
		name := e.Name.String()
		if !matchName(name, pattern) {
			continue
		}
		if *long {
			fmt.Printf("%10d  0x%08x  %s\n", e.Size, e.Offset, encoding.DecodeName(e.Name.Bytes()))
		} else {
			fmt.Println(encoding.DecodeName(e.Name.Bytes()))
		}
		count++
		if *limit > 0 && count >= *limit {
			break
		}
	}

	if pattern != "" {
		fmt.Fprintf(os.Stderr, "\n(%d files matched)\n", count)
	}
	return nil
}

func cmdExtract(args []string) error {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 2 {
		return fmt.Errorf("%w: podtool extract <file.pod> <name> [output_dir]", errUsage)
	}

	name := fs.Arg(1)
	outputDir := "."
	if fs.NArg() > 2 {
		outputDir = fs.Arg(2)
	}

	archive, err := pod.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer archive.Close()

	if strings.ContainsAny(name, "*?[") {
		return extractPattern(archive, name, outputDir)
	}

	name = string(encoding.EncodeName(strings.ReplaceAll(name, "/", `\`)))
	data, err := archive.ReadFile(name)
	if err != nil {
		return err
	}

	outputPath := filepath.Join(outputDir, localPath(name))
	if err := writeFile(outputPath, data); err != nil {
		return err
	}

	fmt.Printf("Extracted: %s (%d bytes)\n", outputPath, len(data))
	return nil
}

func extractPattern(archive *pod.Archive, pattern, outputDir string) error {
	extracted := 0
	for _, name := range archive.List() {
		file := name[strings.LastIndexFunc(name, isSeparator)+1:]
		matched, _ := path.Match(strings.ToLower(pattern), strings.ToLower(file))
		if !matched {
			continue
		}

		data, err := archive.ReadFile(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", name, err)
			continue
		}

		outputPath := filepath.Join(outputDir, localPath(name))
		if err := writeFile(outputPath, data); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", outputPath, err)
			continue
		}

		fmt.Printf("Extracted: %s\n", outputPath)
		extracted++
	}

	fmt.Fprintf(os.Stderr, "\nExtracted %d files\n", extracted)
	return nil
}

// localPath converts an archive name to a relative path on the host file
// system. Both separators are honored and parent references are dropped so
// that extraction stays inside the output directory.
func localPath(name string) string {
	var parts []string
	for _, part := range strings.FieldsFunc(name, isSeparator) {
		if part == "" || part == "." || part == ".." {
			continue
		}
		parts = append(parts, part)
	}
	return filepath.Join(parts...)
}

func isSeparator(r rune) bool {
	return r == '\\' || r == '/'
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

package assets

import (
	"bufio"
	"embed"
	"io/fs"
	"path"
	"strings"
)

//go:embed standard.txt travel.txt science.txt
var FS embed.FS

func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, strings.ToUpper(s))
	}
	return out, sc.Err()
}

// DeckIDs lists the embedded deck identifiers (file names minus extension).
func DeckIDs() ([]string, error) {
	entries, err := fs.ReadDir(FS, ".")
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if !e.IsDir() && path.Ext(e.Name()) == ".txt" {
			ids = append(ids, strings.TrimSuffix(e.Name(), ".txt"))
		}
	}
	return ids, nil
}

// DeckList returns the word list for an embedded deck id.
func DeckList(id string) ([]string, error) {
	return readLines(id + ".txt")
}

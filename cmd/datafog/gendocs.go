package datafog

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/datafog/datafog-go/internal/entities"
)

const (
	entityTypesBegin = "<!-- BEGIN:ENTITY_TYPES -->"
	entityTypesEnd   = "<!-- END:ENTITY_TYPES -->"
)

// gendocs regenerates the entity types table in README.md between the
// ENTITY_TYPES markers.
func init() {
	cmd := &cobra.Command{
		Use:    "gendocs [README.md]",
		Short:  "Regenerate the README entity types section",
		Hidden: true,
		Args:   cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := "README.md"
			if len(args) == 1 {
				path = args[0]
			}
			b, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			out, err := replaceEntityTypes(b, entities.NewRegistry().Types())
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			return os.WriteFile(path, out, 0644)
		},
	}
	rootCmd.AddCommand(cmd)
}

func replaceEntityTypes(doc []byte, types []entities.EntityType) ([]byte, error) {
	start, end := []byte(entityTypesBegin), []byte(entityTypesEnd)
	i := bytes.Index(doc, start)
	j := bytes.Index(doc, end)
	if i < 0 || j < 0 || j <= i {
		return nil, fmt.Errorf("markers not found")
	}
	var sb strings.Builder
	sb.WriteString("\n| Name | Label |\n|---|---|\n")
	for _, t := range types {
		fmt.Fprintf(&sb, "| `%s` | %s |\n", t.Name, t.Label)
	}
	var nb bytes.Buffer
	nb.Write(doc[:i])
	nb.Write(start)
	nb.WriteString(sb.String())
	nb.Write(end)
	nb.Write(doc[j+len(end):])
	return nb.Bytes(), nil
}

package datafog

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/datafog/datafog-go/internal/audit"
	"github.com/datafog/datafog-go/internal/entities"
	"github.com/datafog/datafog-go/internal/redaction"
	"github.com/datafog/datafog-go/internal/report"
)

var (
	entitiesAdd        []string
	entitiesRemove     []string
	entitiesRedact     bool
	entitiesShowValues bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "entities",
		Short: "Experimental named entity detection with a local model",
		Long:  "Detect named entities with a model served by Ollama (see entity_endpoint and entity_model in the config).",
	}
	cmd.PersistentFlags().StringArrayVar(&entitiesAdd, "add", nil, "add an entity type NAME=Label (repeatable)")
	cmd.PersistentFlags().StringArrayVar(&entitiesRemove, "remove", nil, "remove an entity type by name (repeatable)")
	rootCmd.AddCommand(cmd)

	detect := &cobra.Command{
		Use:   "detect [file|-]",
		Short: "Detect entities in a document",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEntitiesDetect,
	}
	detect.Flags().BoolVar(&entitiesRedact, "redact", false, "redact the detected entities and print the text")
	detect.Flags().BoolVar(&entitiesShowValues, "show-values", false, "show entity text unmasked")
	cmd.AddCommand(detect)

	cmd.AddCommand(&cobra.Command{
		Use:   "types",
		Short: "List the entity types the detector accepts",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			a, det, err := newDetector(c)
			if err != nil {
				return err
			}
			ts := det.Registry().Types()
			if flagJSON {
				return report.WriteJSON(a.out, ts, a.highlight())
			}
			return report.PrintEntityTypes(a.out, ts)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Show the entity model configuration",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			a, det, err := newDetector(c)
			if err != nil {
				return err
			}
			info := det.ModelInfo()
			if flagJSON {
				return report.WriteJSON(a.out, info, a.highlight())
			}
			_, err = fmt.Fprintf(a.out, "backend:  %s\nendpoint: %s\nmodel:    %s\npattern:  %s\n",
				info.Backend, info.Endpoint, info.Model, info.Pattern)
			return err
		},
	})
}

func newDetector(c *cobra.Command) (*app, *entities.Detector, error) {
	a, err := newApp(c)
	if err != nil {
		return nil, nil, err
	}
	reg := entities.NewRegistry()
	for name, label := range a.settings.EntityTypes {
		reg.Add(name, label)
	}
	for _, kv := range entitiesAdd {
		name, label, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(label) == "" {
			return nil, nil, fmt.Errorf("%w: --add expects NAME=Label, got %q", errUsage, kv)
		}
		reg.Add(strings.TrimSpace(name), strings.TrimSpace(label))
	}
	for _, name := range entitiesRemove {
		reg.Remove(name)
	}
	client, err := a.entityClient()
	if err != nil {
		return nil, nil, err
	}
	cfg := a.settings.EntityConfig()
	det := entities.New(client,
		entities.WithLogger(a.logger),
		entities.WithRegistry(reg),
		entities.WithModel(string(cfg.Backend), client.Endpoint(), cfg.Model))
	return a, det, nil
}

func runEntitiesDetect(c *cobra.Command, args []string) error {
	a, det, err := newDetector(c)
	if err != nil {
		return err
	}
	text, source, err := readInput(c, args)
	if err != nil {
		return err
	}
	ents, err := det.Detect(c.Context(), text)
	if err != nil {
		return err
	}
	if !entitiesRedact {
		if flagJSON {
			return report.WriteJSON(a.out, ents, a.highlight())
		}
		opts := a.print
		opts.ShowValues = entitiesShowValues
		return report.PrintEntities(a.out, ents, opts)
	}

	ds, err := ents.Detections()
	if err != nil {
		return err
	}
	set, err := redaction.NewDetectionSet(ds...)
	if err != nil {
		return err
	}
	res, err := set.Redact(text)
	if err != nil {
		return err
	}
	redactShowValues = entitiesShowValues
	if err := a.writeRedaction(source, set, res); err != nil {
		return err
	}
	if a.settings.Audit {
		a.recordAudit(source, set, res, audit.Meta{Extracted: true, Model: det.ModelInfo().Model})
	}
	return nil
}

package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Namespace maps class names appearing in config files to class references.
// Go has no process-wide name-to-type lookup, so the caller supplies the
// namespace explicitly.
type Namespace map[string]*Class

// FromConfig loads the pipeline from a YAML configuration file. The document
// is an ordered mapping from stage id to a stage spec:
//
//	scale_data:
//	  attribute: scaled
//	  method: Scale
//	  class: Scaler
//	  arguments:
//	    factor: 2.0
//
// Document order is execution order. Recognized keys are attribute, method,
// class and arguments; anything else fails with ErrUnrecognizedConfigKey.
// Class names resolve through ns; a miss fails with ErrUnknownClass. Loading
// replaces any previously loaded stages.
func (p *Pipeline) FromConfig(path string, ns Namespace) error {
	p.logger.Debug("loading pipeline from config", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %q: %w", path, err)
	}
	stages, err := p.parseConfig(data, ns)
	if err != nil {
		return fmt.Errorf("config %q: %w", path, err)
	}

	p.stages = stages
	p.logger.Debug("config loaded", "stages", len(stages))
	return nil
}

// parseConfig decodes the document through yaml.Node to preserve the mapping
// order; a plain map would shuffle the stages.
func (p *Pipeline) parseConfig(data []byte, ns Namespace) ([]*Stage, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: empty config document", ErrInvalidDescriptor)
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: config root must be a mapping of stage ids", ErrInvalidDescriptor)
	}

	var stages []*Stage
	for i := 0; i < len(root.Content); i += 2 {
		stageID := root.Content[i].Value
		spec := root.Content[i+1]
		if spec.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: stage %q must be a mapping", ErrInvalidDescriptor, stageID)
		}

		st := &Stage{num: len(stages), id: stageID, state: StageParsed}
		for j := 0; j < len(spec.Content); j += 2 {
			key := spec.Content[j].Value
			val := spec.Content[j+1]
			switch key {
			case "attribute":
				st.Attribute = val.Value
			case "method":
				st.Method = val.Value
			case "class":
				class, ok := ns[val.Value]
				if !ok {
					return nil, fmt.Errorf("%w: %q (stage %q)", ErrUnknownClass, val.Value, stageID)
				}
				st.Class = class
			case "arguments":
				var args map[string]any
				if err := val.Decode(&args); err != nil {
					return nil, fmt.Errorf("stage %q: decoding arguments: %w", stageID, err)
				}
				st.Arguments = Args(args)
			default:
				return nil, fmt.Errorf("%w: %q (stage %q)", ErrUnrecognizedConfigKey, key, stageID)
			}
		}
		stages = append(stages, st)
		p.logger.Debug("config stage parsed",
			"stage_id", stageID, "attribute", st.Attribute, "method", st.Method, "class", st.Class.String())
	}
	return stages, nil
}

package config

import "gopkg.in/yaml.v3"

// StringOrSlice decodes either a single YAML scalar or a sequence of
// scalars into a []string (§4.9: "depends_on accepts a string or a list
// of strings"; "on accepts a list or single string of event names").
// Adapted to yaml.v3's node-based UnmarshalYAML from the string-or-struct
// custom unmarshaler idiom seen elsewhere in the reference pack (the
// orc config loader's TriggerCooldownConfig), generalized to the simpler
// string/[]string variant Visor's fields need.
type StringOrSlice []string

func (s *StringOrSlice) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var single string
		if err := value.Decode(&single); err != nil {
			return err
		}
		if single == "" {
			*s = nil
			return nil
		}
		*s = StringOrSlice{single}
		return nil
	}

	var list []string
	if err := value.Decode(&list); err != nil {
		return err
	}
	*s = StringOrSlice(list)
	return nil
}

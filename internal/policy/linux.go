package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/openappsec-go/agentcore/internal/domain/policy/v1beta2"
)

// LocalPolicyFile is the decoded shape of the Linux-mode policy file (spec.md
// §6 "Files": /conf/local_policy.yaml by default). It carries the same
// object graph Kubernetes mode assembles from separate CRDs, flattened into
// one YAML document, and uses the v1beta2 schema since that's the only
// version the Linux agent ships with (spec.md REDESIGN FLAGS: the original
// shelled out to a separate YAML->JSON converter binary before parsing;
// this decodes the document directly with yaml.v3 instead).
type LocalPolicyFile struct {
	Policies        []v1beta2.AppsecPolicy          `yaml:"policies"`
	Practices       []v1beta2.AppSecPracticeSpec     `yaml:"practices"`
	Triggers        []v1beta2.AppsecTriggerSpec      `yaml:"log-triggers"`
	Exceptions      []v1beta2.AppsecExceptionSpec    `yaml:"exceptions"`
	CustomResponses []v1beta2.AppSecCustomResponseSpec `yaml:"custom-responses"`
	TrustedSources  []v1beta2.TrustedSourcesSpec      `yaml:"trusted-sources"`
	SourceIdents    []v1beta2.SourceIdentifierSpec    `yaml:"source-identifiers"`
}

// LoadLocalPolicy reads and decodes the Linux-mode policy file at path,
// returning a resolver populated from its named objects plus one
// PolicySource per declared policy (most deployments declare exactly one).
func LoadLocalPolicy(path string) (*MapResolver, []PolicySource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading local policy file %s: %w", path, err)
	}

	var doc LocalPolicyFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("decoding local policy file %s: %w", path, err)
	}

	resolver := BuildV1beta2Resolver(
		doc.Practices, doc.Triggers, doc.Exceptions,
		doc.CustomResponses, doc.TrustedSources, doc.SourceIdents,
	)

	sources := make([]PolicySource, 0, len(doc.Policies))
	for _, p := range doc.Policies {
		sources = append(sources, ConvertV1beta2Policy(p))
	}

	return resolver, sources, nil
}

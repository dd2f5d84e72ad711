// Package k8s implements the Kubernetes-mode policy ingestion path
// (spec.md §6 "Kubernetes"): listing Ingress objects and the
// openappsec.io/v1beta1 and v1beta2 CRDs through the in-cluster API server,
// reusing the messaging client's connection pooling, TLS-validation-
// disabled transport, and GET-response cache rather than opening a second
// HTTP stack. Grounded on original_source's orchestration k8s_policy_gen
// component, which likewise lists cluster objects through a plain REST
// client rather than a generated clientset.
package k8s

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/openappsec-go/agentcore/internal/domain/messaging"
	"github.com/openappsec-go/agentcore/internal/domain/policy/v1beta1"
	"github.com/openappsec-go/agentcore/internal/domain/policy/v1beta2"
	corepolicy "github.com/openappsec-go/agentcore/internal/policy"
)

const defaultNamespaceDoc = "/var/run/secrets/kubernetes.io/serviceaccount/namespace"

// crdList is the shape of a Kubernetes List response for any of the CRD
// kinds this package fetches: AppSecPracticeSpec, AppsecTriggerSpec, etc
// each arrive wrapped one level as {items: [{spec: T}, ...]}.
type crdList[T any] struct {
	Items []struct {
		Metadata struct {
			Name string `json:"name"`
		} `json:"metadata"`
		Spec T `json:"spec"`
	} `json:"items"`
}

// Client lists openappsec CRDs and Ingress objects from the in-cluster API
// server through a messaging.Client already configured against
// kubernetes.default.svc:443 with TLS validation disabled and the service
// account bearer token attached as an Authorization header (spec.md §6:
// the agent runs inside the cluster it protects and has no other way to
// reach the API server's self-signed certificate chain).
type Client struct {
	messaging messaging.Client
	namespace string
	token     string
	apiHost   string
	apiPort   int
}

// NewClient reads the service account token from tokenPath (normally
// config.PolicyConfig.KubeconfigToken) and the namespace from the standard
// projected-volume doc, then wires a Client that sends every request through
// msg to https://apiHostPort (normally config.PolicyConfig.KubeAPIHost),
// reusing the same connection-pool/suspension machinery the fog connection
// uses, since both are just HTTPS endpoints.
func NewClient(msg messaging.Client, tokenPath, apiHostPort string) (*Client, error) {
	tokenBytes, err := os.ReadFile(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("reading service account token: %w", err)
	}
	nsBytes, err := os.ReadFile(defaultNamespaceDoc)
	if err != nil {
		return nil, fmt.Errorf("reading service account namespace: %w", err)
	}
	host, port := splitHostPort(apiHostPort)
	return &Client{
		messaging: msg,
		namespace: strings.TrimSpace(string(nsBytes)),
		token:     strings.TrimSpace(string(tokenBytes)),
		apiHost:   host,
		apiPort:   port,
	}, nil
}

// splitHostPort splits "host:port" into host and an integer port, defaulting
// to 443 when no port is present or it fails to parse.
func splitHostPort(hostPort string) (string, int) {
	host, portStr, ok := strings.Cut(hostPort, ":")
	if !ok {
		return hostPort, 443
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 443
	}
	return host, port
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	meta := messaging.Metadata{
		HostName:  c.apiHost,
		Port:      c.apiPort,
		ConnFlags: (messaging.ConnFlags(0)).Set(messaging.ConnFlagSecure).Set(messaging.ConnFlagSkipValidation),
	}
	meta.InsertHeader("Authorization", "Bearer "+c.token)

	uri := fmt.Sprintf("https://%s:%d%s", c.apiHost, c.apiPort, path)
	resp, err := c.messaging.SendSync(ctx, "GET", uri, "", messaging.CategoryPolicy, meta)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", path, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetching %s: %s", path, resp.String())
	}
	return []byte(resp.Body), nil
}

// ListIngresses fetches every networking.k8s.io/v1 Ingress in the agent's
// namespace and converts each to a normalized PolicySource via the
// ingress's openappsec.io annotations (host/practice/trigger references),
// grounded on original_source's k8s_policy_gen ingress-annotation parsing.
func (c *Client) ListIngresses(ctx context.Context) ([]IngressPolicy, error) {
	body, err := c.get(ctx, fmt.Sprintf("/apis/networking.k8s.io/v1/namespaces/%s/ingresses", c.namespace))
	if err != nil {
		return nil, err
	}
	var list ingressList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decoding ingress list: %w", err)
	}

	out := make([]IngressPolicy, 0, len(list.Items))
	for _, item := range list.Items {
		out = append(out, parseIngress(item))
	}
	return out, nil
}

// ListV1Beta1Resolver fetches every named CRD object under the
// openappsec.io/v1beta1 group and returns a policy.Resolver over them.
func (c *Client) ListV1Beta1Resolver(ctx context.Context) (corepolicy.Resolver, error) {
	practices, err := fetchList[v1beta1.AppSecPracticeSpec](ctx, c, "practices")
	if err != nil {
		return nil, err
	}
	triggers, err := fetchList[v1beta1.AppsecTriggerSpec](ctx, c, "logtriggers")
	if err != nil {
		return nil, err
	}
	exceptions, err := fetchList[v1beta1.AppsecExceptionSpec](ctx, c, "exceptions")
	if err != nil {
		return nil, err
	}
	customResponses, err := fetchList[v1beta1.AppSecCustomResponseSpec](ctx, c, "customresponses")
	if err != nil {
		return nil, err
	}
	trustedSources, err := fetchList[v1beta1.TrustedSourcesSpec](ctx, c, "trustedsources")
	if err != nil {
		return nil, err
	}
	sourceIdents, err := fetchList[v1beta1.SourceIdentifierSpec](ctx, c, "sourceidentifiers")
	if err != nil {
		return nil, err
	}
	return corepolicy.BuildV1beta1Resolver(practices, triggers, exceptions, customResponses, trustedSources, sourceIdents), nil
}

// ListV1Beta2Resolver mirrors ListV1Beta1Resolver for the v1beta2 CRD
// group.
func (c *Client) ListV1Beta2Resolver(ctx context.Context) (corepolicy.Resolver, error) {
	practices, err := fetchListV2[v1beta2.AppSecPracticeSpec](ctx, c, "practices")
	if err != nil {
		return nil, err
	}
	triggers, err := fetchListV2[v1beta2.AppsecTriggerSpec](ctx, c, "logtriggers")
	if err != nil {
		return nil, err
	}
	exceptions, err := fetchListV2[v1beta2.AppsecExceptionSpec](ctx, c, "exceptions")
	if err != nil {
		return nil, err
	}
	customResponses, err := fetchListV2[v1beta2.AppSecCustomResponseSpec](ctx, c, "customresponses")
	if err != nil {
		return nil, err
	}
	trustedSources, err := fetchListV2[v1beta2.TrustedSourcesSpec](ctx, c, "trustedsources")
	if err != nil {
		return nil, err
	}
	sourceIdents, err := fetchListV2[v1beta2.SourceIdentifierSpec](ctx, c, "sourceidentifiers")
	if err != nil {
		return nil, err
	}
	return corepolicy.BuildV1beta2Resolver(practices, triggers, exceptions, customResponses, trustedSources, sourceIdents), nil
}

func fetchList[T any](ctx context.Context, c *Client, resource string) ([]T, error) {
	body, err := c.get(ctx, fmt.Sprintf("/apis/openappsec.io/v1beta1/namespaces/%s/%s", c.namespace, resource))
	if err != nil {
		return nil, err
	}
	var list crdList[T]
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decoding %s list: %w", resource, err)
	}
	items := make([]T, 0, len(list.Items))
	for _, it := range list.Items {
		items = append(items, it.Spec)
	}
	return items, nil
}

func fetchListV2[T any](ctx context.Context, c *Client, resource string) ([]T, error) {
	body, err := c.get(ctx, fmt.Sprintf("/apis/openappsec.io/v1beta2/namespaces/%s/%s", c.namespace, resource))
	if err != nil {
		return nil, err
	}
	var list crdList[T]
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decoding %s list: %w", resource, err)
	}
	items := make([]T, 0, len(list.Items))
	for _, it := range list.Items {
		items = append(items, it.Spec)
	}
	return items, nil
}

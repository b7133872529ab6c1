// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Id identifies a catalog entry.
type Id int

const (
	// KustomizeNotFoundId covers a missing or unusable kustomize binary.
	KustomizeNotFoundId Id = iota + 1
	// ManifestParseErrorId covers a malformed kustomization.yaml.
	ManifestParseErrorId
	// NoUnitsFoundId covers a scan that discovered nothing.
	NoUnitsFoundId
	// MalformedStreamId covers a build stream that violated the
	// separator/header protocol.
	MalformedStreamId
	// ConfigLoadFailedId covers an unreadable or invalid config file.
	ConfigLoadFailedId
)

type (
	// MarkdownMsg is Markdown text rendered for the user.
	MarkdownMsg string

	// HttpLink is a documentation URL attached to an issue.
	HttpLink string

	// Issue is one catalog entry: a known failure condition with
	// remediation guidance.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
	}
)

// Id returns the catalog id.
func (i *Issue) Id() Id {
	return i.id
}

// MarkdownMsg returns the raw Markdown guidance.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// DocLinks returns the attached documentation links.
func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render renders the guidance (plus links) with the given glamour style.
func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 {
		extraMd += "\n\n## See also:\n"
		for _, link := range i.docLinks {
			extraMd += "- " + string(link) + "\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	kustomizeNotFoundIssue = &Issue{
		id: KustomizeNotFoundId,
		mdMsg: `
# kustomize binary not found!

kustrace templates every unit by running the external kustomize binary, and
the configured command could not be executed (or did not report a version).

## Things you can try:
- Install kustomize:
  - Linux/macOS: ` + "`brew install kustomize`" + `
  - Or download a release from https://github.com/kubernetes-sigs/kustomize/releases
- Point kustrace at a different binary:
~~~
$ kustrace scan --kustomize-command /path/to/kustomize .
~~~
- Verify the binary works on its own:
~~~
$ kustomize version
~~~`,
		docLinks: []HttpLink{"https://kubectl.docs.kubernetes.io/installation/kustomize/"},
	}

	manifestParseErrorIssue = &Issue{
		id: ManifestParseErrorId,
		mdMsg: `
# Failed to parse a kustomization.yaml!

One of the discovered manifests contains invalid YAML. The unit was skipped
and the rest of the run continued.

## Things you can try:
- Check the logged path for the syntax error
- Validate the unit directly:
~~~
$ kustomize build <unit-dir>
~~~`,
	}

	noUnitsFoundIssue = &Issue{
		id: NoUnitsFoundId,
		mdMsg: `
# No kustomization units found!

The scan finished without discovering a single kustomization.yaml.

## Things you can try:
- Check the root path you passed to the scan
- Check your skip patterns; an over-broad glob can prune everything:
~~~
$ kustrace config show
~~~
- When using --file, every entry must literally be a kustomization.yaml path`,
	}

	malformedStreamIssue = &Issue{
		id: MalformedStreamId,
		mdMsg: `
# kustomize produced an unexpected document stream!

Every document in a build stream must start with a "---" separator followed
by an "apiVersion:" header. One unit's stream broke that protocol, so its
splitting stopped; documents finalized earlier are unaffected and partial
output was kept for inspection.

## Things you can try:
- Re-run the build by hand and inspect the output:
~~~
$ kustomize build <unit-dir>
~~~
- Re-run kustrace with --keep-output and look at the unit's output directory`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Your config file exists but could not be read or parsed. kustrace continued
with built-in defaults.

## Things you can try:
- Show the effective configuration and its source path:
~~~
$ kustrace config path
$ kustrace config show
~~~
- Check the YAML syntax of the file at that path`,
	}

	issues = map[Id]*Issue{
		kustomizeNotFoundIssue.Id():  kustomizeNotFoundIssue,
		manifestParseErrorIssue.Id(): manifestParseErrorIssue,
		noUnitsFoundIssue.Id():       noUnitsFoundIssue,
		malformedStreamIssue.Id():    malformedStreamIssue,
		configLoadFailedIssue.Id():   configLoadFailedIssue,
	}
)

// Values returns every catalog entry.
func Values() []*Issue {
	return maps.Values(issues)
}

// Get returns the catalog entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}

package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot is a struct used to decode all possible top-level blocks from any
// file.
type fileRoot struct {
	Engine       *engineBlock       `hcl:"engine,block"`
	Handlers     []*handlerBlock    `hcl:"handler,block"`
	Globals      *globalsBlock      `hcl:"globals,block"`
	Prompts      *promptsBlock      `hcl:"prompts,block"`
	HTTP         *httpBlock         `hcl:"http,block"`
	PromptServer *promptServerBlock `hcl:"prompt_server,block"`
	Remain       hcl.Body           `hcl:",remain"`
}

type engineBlock struct {
	Workers      *int    `hcl:"workers,optional"`
	Sequential   *bool   `hcl:"sequential,optional"`
	Timeout      *string `hcl:"timeout,optional"`
	MaxCallDepth *int    `hcl:"max_call_depth,optional"`
}

type handlerBlock struct {
	Module  string `hcl:"module,label"`
	Name    string `hcl:"name,label"`
	Barrier *bool  `hcl:"barrier,optional"`
	Pure    *bool  `hcl:"pure,optional"`
}

// globalsBlock holds arbitrary attributes; each one becomes a script global.
type globalsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

type promptsBlock struct {
	Answers      map[string]string `hcl:"answers,optional"`
	SuggestFirst bool              `hcl:"suggest_first,optional"`
}

type httpBlock struct {
	Timeout string `hcl:"timeout,optional"`
}

type promptServerBlock struct {
	URL                string `hcl:"url"`
	Namespace          string `hcl:"namespace,optional"`
	InsecureSkipVerify bool   `hcl:"insecure_skip_verify,optional"`
	AnswerTimeout      string `hcl:"answer_timeout,optional"`
}

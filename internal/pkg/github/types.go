package github

// Repository 是上游仓库的元信息
type Repository struct {
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Private       bool   `json:"private"`
	Description   string `json:"description"`
	HTMLURL       string `json:"html_url"`
	Language      string `json:"language"`
	DefaultBranch string `json:"default_branch"`
}

// Branch 是上游仓库的分支信息
type Branch struct {
	Name string `json:"name"`
}

// ContentEntry 是 contents API 返回的单个条目
// 目录列表返回条目数组，单文件返回带 Content 的单个条目
type ContentEntry struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Type     string `json:"type"` // "file" / "dir" / "symlink" / "submodule"
	Size     int64  `json:"size"`
	SHA      string `json:"sha"`
	Content  string `json:"content"`  // base64，仅单文件响应携带
	Encoding string `json:"encoding"` // "base64"，超大文件为 "none"
}

// TreeEntry 是 git trees API 返回的单个对象
type TreeEntry struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
	Type string `json:"type"` // "blob" / "tree"
	SHA  string `json:"sha"`
	Size int64  `json:"size"`
}

// Tree 是 git trees API 的响应体
type Tree struct {
	SHA       string      `json:"sha"`
	Tree      []TreeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

type blobResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	Size     int64  `json:"size"`
}

// listReposOptions 映射 GET /user/repos 的查询参数
type listReposOptions struct {
	Visibility  string `url:"visibility"`
	Affiliation string `url:"affiliation"`
	PerPage     int    `url:"per_page"`
}

// refOption 映射携带 ref 的查询参数
type refOption struct {
	Ref string `url:"ref,omitempty"`
}

package explorer

// FileNode 是分享页文件树中的一个节点
// 目录节点的 Children 在访问者展开时按需加载
type FileNode struct {
	Name     string     `json:"name"`
	Path     string     `json:"path"`
	Type     string     `json:"type"` // "file" 或 "dir"
	Size     *int64     `json:"size,omitempty"`
	Children []FileNode `json:"children,omitempty"`
}

// FileContent 是解码后的文本文件内容
type FileContent struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	Size     int64  `json:"size"`
}

package costing

// HierarchyNode is one level of the division → category → subcategory tree
type HierarchyNode struct {
	Name      string           `json:"name"`
	CostCodes []CostCode       `json:"cost_codes,omitempty"`
	Children  []*HierarchyNode `json:"children,omitempty"`
}

// child returns the named child, creating it in first-appearance order
func (n *HierarchyNode) child(name string) *HierarchyNode {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	c := &HierarchyNode{Name: name}
	n.Children = append(n.Children, c)
	return c
}

// BuildHierarchy groups active cost codes by exact division, category and
// subcategory strings. Codes without a category hang off the division node;
// codes without a subcategory hang off the category node.
func BuildHierarchy(codes []CostCode) []*HierarchyNode {
	root := &HierarchyNode{}
	for _, cc := range codes {
		if !cc.IsActive {
			continue
		}
		node := root.child(cc.Division)
		if cc.Category != "" {
			node = node.child(cc.Category)
			if cc.Subcategory != "" {
				node = node.child(cc.Subcategory)
			}
		}
		node.CostCodes = append(node.CostCodes, cc)
	}
	return root.Children
}

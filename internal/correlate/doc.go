/*
Package correlate bridges XPath evaluation across two independently parsed
trees of the same HTML document.

# Problem

The primary tree (goquery) only evaluates CSS selectors. The secondary tree
(x/net/html via htmlquery) evaluates XPath, but its nodes are foreign to the
primary tree. Translator code queries by XPath yet must receive primary-tree
nodes so that selector-based accessors keep working on the results.

# Algorithm

 1. Evaluate the expression against the secondary tree.
 2. For each match, walk parent links recording (tag, index-among-same-tag
    element-siblings) pairs: the structural Path.
 3. Re-walk the primary tree from its root, one step at a time, selecting
    the step-indexed child among same-tag element children.
 4. A node whose path cannot be resolved is dropped; the rest of the match
    set is unaffected.

Ties among same-tag siblings break purely by document order, and resolution
is deterministic: same path, same document, same node.
*/
package correlate

package extract

// collapseSections removes headings whose section body is empty. A section
// runs from its heading to the next heading of equal or shallower level;
// it is empty when that range holds no body paragraph, so a heading
// followed only by deeper empty sections collapses along with them.
// Surviving headings stay in the output as plain lines.
func collapseSections(paras []paragraph) []string {
	out := make([]string, 0, len(paras))
	for i, p := range paras {
		if p.level == 0 {
			out = append(out, p.text)
			continue
		}
		for j := i + 1; j < len(paras); j++ {
			if paras[j].level != 0 && paras[j].level <= p.level {
				break
			}
			if paras[j].level == 0 {
				out = append(out, p.text)
				break
			}
		}
	}
	return out
}

package monitoring

func statusLabel(errored bool) string {
	if errored {
		return "error"
	}
	return "success"
}

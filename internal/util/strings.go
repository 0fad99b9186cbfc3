package util

// ParseBool coerces a metadata flag into a bool.
// Machine definitions store flags as real bools, as the strings "True"/"true"/"Yes"/"yes",
// or as the number 1. Anything else, including nil, is false.
func ParseBool(v interface{}) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		switch val {
		case "True", "true", "Yes", "yes":
			return true
		}
		return false
	case int:
		return val == 1
	case int64:
		return val == 1
	case float64:
		return val == 1
	default:
		return false
	}
}

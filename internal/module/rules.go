package module

// 规则信息

type RuleData struct {
	ID          string
	Title       string
	Description string
}

var RuleDataMap = map[string]*RuleData{
	"S2095": {
		"S2095",
		"Resources should be closed",
		"Connections, streams, files, and other classes that implement the Closeable interface or its super-interface, AutoCloseable, needs to be closed after use. Failure to do so will result in a resource leak which could bring first the application and then perhaps the box the application is on to their knees.",
	},
	"S2259": {
		"S2259",
		"Null pointers should not be dereferenced",
		"A reference to null should never be dereferenced/accessed. Doing so will cause a NullPointerException to be thrown. At best, such an exception will cause abrupt program termination. At worst, it could expose debugging information that would be useful to an attacker, or it could allow an attacker to bypass security measures.",
	},
	"S2583": {
		"S2583",
		"Conditionally executed code should be reachable",
		"Conditional expressions which are always true or false can lead to unreachable code. In the case of always true expressions, the else branch is never executed; for always false ones, the then branch is dead code.",
	},
}

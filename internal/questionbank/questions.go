package questionbank

// QuestionType distinguishes how an answer is matched during scoring.
type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeIdentification QuestionType = "identification"
	TypeCodeAnalysis   QuestionType = "code_analysis"
)

// Question is one entry of the fixed exam paper.
type Question struct {
	ID            string       `json:"id"`
	Type          QuestionType `json:"type"`
	Question      string       `json:"question"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"-"`
	Points        int          `json:"points"`
	Category      string       `json:"category"`
}

// ExamQuestions is the static question bank.
// C Programming Fundamentals, Grade 11 Computer Programming 2.
var ExamQuestions = []Question{
	// ─── Part I: Multiple Choice ───────────────────────────────────────
	{
		ID:            "mc_1",
		Type:          TypeMultipleChoice,
		Question:      "A variable is a container for a value. Which of the following is a valid variable name in C?",
		Options:       []string{"21_age", "my@email", "int", "student_name"},
		CorrectAnswer: "student_name",
		Points:        2,
		Category:      "Variables",
	},
	{
		ID:            "mc_2",
		Type:          TypeMultipleChoice,
		Question:      "Which of the following variable declarations is correct in C?",
		Options:       []string{"int 25;", "char_ab;", "float price = 44.50;", "string 143;"},
		CorrectAnswer: "float price = 44.50;",
		Points:        2,
		Category:      "Variable Declaration",
	},
	{
		ID:            "mc_3",
		Type:          TypeMultipleChoice,
		Question:      "Which is the standard header file for input/output operations in C?",
		Options:       []string{"#include<string.h>", "#include(stdio.h)", "#include<stdio.h>", "#include(string.h)"},
		CorrectAnswer: "#include<stdio.h>",
		Points:        2,
		Category:      "C Syntax",
	},
	{
		ID:            "mc_4",
		Type:          TypeMultipleChoice,
		Question:      "Which format specifier is used for the integer value 50?",
		Options:       []string{"%d", "%.2f", "%f", "%s"},
		CorrectAnswer: "%d",
		Points:        2,
		Category:      "Format Specifiers",
	},
	{
		ID:            "mc_5",
		Type:          TypeMultipleChoice,
		Question:      "Which data type should be used to store a single character like 'J'?",
		Options:       []string{"float", "int", "char", "void"},
		CorrectAnswer: "char",
		Points:        2,
		Category:      "Data Types",
	},
	{
		ID:            "mc_6",
		Type:          TypeMultipleChoice,
		Question:      "Which operator calculates the remainder of a division?",
		Options:       []string{"/", "++", "*", "%"},
		CorrectAnswer: "%",
		Points:        2,
		Category:      "Operators",
	},
	{
		ID:            "mc_7",
		Type:          TypeMultipleChoice,
		Question:      "What is the result of the expression: x = 62 % 12?",
		Options:       []string{"x = 0", "x = 2", "x = 5", "x = 744"},
		CorrectAnswer: "x = 2",
		Points:        2,
		Category:      "Operators",
	},
	{
		ID:            "mc_8",
		Type:          TypeMultipleChoice,
		Question:      "Which data type is used for declaring whole numbers (integers)?",
		Options:       []string{"int", "float", "char", "double"},
		CorrectAnswer: "int",
		Points:        2,
		Category:      "Data Types",
	},
	{
		ID:            "mc_9",
		Type:          TypeMultipleChoice,
		Question:      "Which symbol is used to end every statement in C programming?",
		Options:       []string{"\\n", "{ }", ";", "&"},
		CorrectAnswer: ";",
		Points:        2,
		Category:      "C Syntax",
	},
	{
		ID:            "mc_10",
		Type:          TypeMultipleChoice,
		Question:      "Which format specifier is used to print a string (series of characters)?",
		Options:       []string{"%c", "%d", "%f", "%s"},
		CorrectAnswer: "%s",
		Points:        2,
		Category:      "Format Specifiers",
	},
	{
		ID:            "mc_11",
		Type:          TypeMultipleChoice,
		Question:      "Which of the following is the correct syntax for multi-line comments in C?",
		Options:       []string{"/* comment */", "//", "\\\\", "/* comment /*"},
		CorrectAnswer: "/* comment */",
		Points:        2,
		Category:      "Comments",
	},
	{
		ID:            "mc_12",
		Type:          TypeMultipleChoice,
		Question:      "Which comment style ignores only a single line in C?",
		Options:       []string{"/* */", "//", "<!-- -->", "##"},
		CorrectAnswer: "//",
		Points:        2,
		Category:      "Comments",
	},
	{
		ID:            "mc_13",
		Type:          TypeMultipleChoice,
		Question:      "Which function is used to display output on the screen in C?",
		Options:       []string{"printf()", "getch()", "scanf()", "main()"},
		CorrectAnswer: "printf()",
		Points:        2,
		Category:      "C Functions",
	},
	{
		ID:            "mc_14",
		Type:          TypeMultipleChoice,
		Question:      "Which function marks the starting point of program execution in C?",
		Options:       []string{"start()", "main()", "printf()", "scanf()"},
		CorrectAnswer: "main()",
		Points:        2,
		Category:      "C Functions",
	},
	{
		ID:            "mc_15",
		Type:          TypeMultipleChoice,
		Question:      "What is the correct syntax for an if statement in C?",
		Options:       []string{"if (condition) statement;", "if { condition } statement;", "if condition statement;", "condition if statement;"},
		CorrectAnswer: "if (condition) statement;",
		Points:        2,
		Category:      "Conditional Statements",
	},
	{
		ID:            "mc_16",
		Type:          TypeMultipleChoice,
		Question:      "When is the else statement executed in an if-else structure?",
		Options:       []string{"When the condition is true", "When the condition is false", "Always", "Never"},
		CorrectAnswer: "When the condition is false",
		Points:        2,
		Category:      "Conditional Statements",
	},
	{
		ID:            "mc_17",
		Type:          TypeMultipleChoice,
		Question:      "Which of the following is a valid variable name?",
		Options:       []string{"2ndValue", "my-var", "_count", "float"},
		CorrectAnswer: "_count",
		Points:        2,
		Category:      "Variables",
	},
	{
		ID:            "mc_18",
		Type:          TypeMultipleChoice,
		Question:      "What does the ++ operator do in C?",
		Options:       []string{"Adds two numbers", "Increments a value by 1", "Multiplies by 2", "Compares two values"},
		CorrectAnswer: "Increments a value by 1",
		Points:        2,
		Category:      "Operators",
	},
	{
		ID:            "mc_19",
		Type:          TypeMultipleChoice,
		Question:      "Which function is used to receive input from the user in C?",
		Options:       []string{"printf()", "input()", "scanf()", "get()"},
		CorrectAnswer: "scanf()",
		Points:        2,
		Category:      "C Functions",
	},
	{
		ID:            "mc_20",
		Type:          TypeMultipleChoice,
		Question:      "What is the output of: printf(\"%d\", 10 / 3);",
		Options:       []string{"3.33", "3", "3.0", "4"},
		CorrectAnswer: "3",
		Points:        2,
		Category:      "Operators",
	},

	// ─── Part II: Identification ───────────────────────────────────────
	{
		ID:            "id_1",
		Type:          TypeIdentification,
		Question:      "What is the name of the person who developed the C programming language at Bell Laboratory?",
		CorrectAnswer: "Dennis Ritchie",
		Points:        3,
		Category:      "C History",
	},
	{
		ID:            "id_2",
		Type:          TypeIdentification,
		Question:      "What format specifier is used for float/decimal values in C?",
		CorrectAnswer: "%f",
		Points:        3,
		Category:      "Format Specifiers",
	},
	{
		ID:            "id_3",
		Type:          TypeIdentification,
		Question:      "What escape sequence is used to create a new line in C?",
		CorrectAnswer: "\\n",
		Points:        3,
		Category:      "Escape Sequences",
	},
	{
		ID:            "id_4",
		Type:          TypeIdentification,
		Question:      "What data type is used to store decimal numbers with double precision?",
		CorrectAnswer: "double",
		Points:        3,
		Category:      "Data Types",
	},
	{
		ID:            "id_5",
		Type:          TypeIdentification,
		Question:      "What symbol is used with scanf() to get the memory address of a variable?",
		CorrectAnswer: "&",
		Points:        3,
		Category:      "C Syntax",
	},
	{
		ID:            "id_6",
		Type:          TypeIdentification,
		Question:      "What is the relational operator that checks if two values are equal?",
		CorrectAnswer: "==",
		Points:        3,
		Category:      "Operators",
	},
	{
		ID:            "id_7",
		Type:          TypeIdentification,
		Question:      "What keyword is used to define a condition that executes when the if condition is false?",
		CorrectAnswer: "else",
		Points:        3,
		Category:      "Conditional Statements",
	},
	{
		ID:            "id_8",
		Type:          TypeIdentification,
		Question:      "What type of value does the int data type store?",
		CorrectAnswer: "integer",
		Points:        3,
		Category:      "Data Types",
	},
	{
		ID:            "id_9",
		Type:          TypeIdentification,
		Question:      "What format specifier is used for printing a single character?",
		CorrectAnswer: "%c",
		Points:        3,
		Category:      "Format Specifiers",
	},
	{
		ID:            "id_10",
		Type:          TypeIdentification,
		Question:      "What is the logical operator that returns true only if BOTH conditions are true?",
		CorrectAnswer: "&&",
		Points:        3,
		Category:      "Operators",
	},

	// ─── Part III: Code Analysis ───────────────────────────────────────
	{
		ID:   "ca_1",
		Type: TypeCodeAnalysis,
		Question: "What is the exact output of this program?\n\n" +
			"#include<stdio.h>\nint main() {\n    int a = 17, b = 5;\n" +
			"    printf(\"Q=%d R=%d\", a / b, a % b);\n    return 0;\n}",
		CorrectAnswer: "Q=3 R=2",
		Points:        5,
		Category:      "Code Analysis",
	},
	{
		ID:   "ca_2",
		Type: TypeCodeAnalysis,
		Question: "What is the exact output of this program?\n\n" +
			"#include<stdio.h>\nint main() {\n    int x = 10;\n    x++;\n    x++;\n" +
			"    printf(\"x=%d\", x);\n    return 0;\n}",
		CorrectAnswer: "x=12",
		Points:        5,
		Category:      "Code Analysis",
	},
	{
		ID:   "ca_3",
		Type: TypeCodeAnalysis,
		Question: "What is the exact output of this program?\n\n" +
			"#include<stdio.h>\nint main() {\n    int n = 7;\n" +
			"    if (n % 2 == 0) printf(\"even\");\n    else printf(\"odd\");\n    return 0;\n}",
		CorrectAnswer: "odd",
		Points:        5,
		Category:      "Code Analysis",
	},
}

// TotalPoints is the fixed maximum score of the paper.
var TotalPoints = func() int {
	sum := 0
	for _, q := range ExamQuestions {
		sum += q.Points
	}
	return sum
}()

// ByID returns the question with the given identifier, or nil.
func ByID(id string) *Question {
	for i := range ExamQuestions {
		if ExamQuestions[i].ID == id {
			return &ExamQuestions[i]
		}
	}
	return nil
}

// Paper returns a copy of the questions with correct answers cleared,
// suitable for serving to students. CorrectAnswer also carries `json:"-"`
// so even an accidental marshal of the bank cannot leak the key.
func Paper() []Question {
	out := make([]Question, len(ExamQuestions))
	copy(out, ExamQuestions)
	for i := range out {
		out[i].CorrectAnswer = ""
	}
	return out
}

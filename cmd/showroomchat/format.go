package main

import (
	"fmt"
	"io"

	"github.com/City-Bureau/showroomchat/pkg/chat"
)

func printMessages(out io.Writer, session chat.Session, from int, staffName string) {
	for i := from; i < len(session.Messages); i++ {
		printMessage(out, session, session.Messages[i], staffName)
	}
}

func printMessage(out io.Writer, session chat.Session, m chat.Message, staffName string) {
	author := staffName
	if m.Sender == chat.SenderVisitor {
		author = session.VisitorName
	}
	marker := ""
	if !m.Read {
		marker = " *"
	}
	fmt.Fprintf(out, "[%s] %s: %s%s\n", m.Timestamp.Local().Format("2006-01-02 15:04"), author, m.Text, marker)
}

package comms

const draftInstruction = `You are drafting a letter from a law firm to a prospective client
about the outcome of their case intake review. Write in a professional,
empathetic tone. Do not promise outcomes; describe the firm's assessment
and the recommended next steps.

Respond with a JSON object containing exactly two string fields:
"subject" and "body".`

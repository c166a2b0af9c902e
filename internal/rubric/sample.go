package rubric

// SampleDurationSeconds is the recorded length of [SampleTranscript] and the
// default duration used when a caller supplies none.
const SampleDurationSeconds = 52

// SampleTranscript is a reference self-introduction. It lands in the Good
// band, between 80 and 85 points, with any reasonable sentiment model.
const SampleTranscript = `Hello everyone, myself Muskan, studying in class 8th B section from Christ Public School.
I am 13 years old. I live with my family. There are 3 people in my family, me, my mother and my father.
One special thing about my family is that they are very kind hearted to everyone and soft spoken.
One thing I really enjoy is playing cricket and taking wickets. A fun fact about me is that I see in mirror and talk by myself.
One thing people don't know about me is that I once stole a toy from one of my cousin.
My favorite subject is science because it is very interesting. Through science I can explore the whole world and make discoveries and improve the lives of others.
Thank you for listening.`
